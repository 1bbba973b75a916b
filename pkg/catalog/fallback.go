package catalog

// Fallback возвращает встроенный каталог на случай недоступности фида.
//
// Всегда содержит хотя бы один товар. Каждый вызов отдаёт новую копию.
func Fallback() Catalog {
	return Catalog{Products: []Product{
		{
			ID:          "product-masker-3d-bodir-3lapis-tasikmalaya",
			Title:       "Masker 3D Bordir",
			Slug:        "masker-3d-bordir",
			URL:         "/product/masker-3d-bodir-3lapis-tasikmalaya/",
			SKU:         "masker3D",
			Price:       "30.000",
			Discount:    "24.000",
			Stock:       "Tersedia",
			Description: "Masker 3D Bordir, 3 Lapisan kain, nyaman digunakan sehari-hari dengan desain yang trendy",
			Image:       "https://cf.shopee.co.id/file/86e632480a9b475919f2d3cf08caa4ef",
			Styles: []Style{
				{Name: "hitam", Color: "#000000", ImagePath: "https://cf.shopee.co.id/file/5194cfd90af282168d7351d1350c924c"},
				{Name: "navi", Color: "#4a5265", ImagePath: "https://cf.shopee.co.id/file/6761d66ebb1f34b00a07583091ff62c6"},
				{Name: "marun", Color: "#ba2342", ImagePath: "https://cf.shopee.co.id/file/d78fe06d94f7f92cfae0505266a78186"},
				{Name: "mustard", Color: "#efa22c", ImagePath: "https://cf.shopee.co.id/file/24200fe4753c8a5cb75d1ef3e1458f08"},
			},
		},
	}}
}
