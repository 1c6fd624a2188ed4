package catalog

import "storefront-service/internal/domain"

func sampleProducts() []domain.Product {
	return []domain.Product{
		{
			ID:         "1",
			Name:       "Air Cloud Runners",
			Category:   "Running",
			Price:      price("189.99"),
			ImageURL:   "https://images.unsplash.com/photo-1542291026-7eec264c27ff",
			Colors:     []string{"Black", "White", "Red"},
			IsNew:      true,
			IsFeatured: true,
		},
		{
			ID:         "2",
			Name:       "Street Motion 2",
			Category:   "Lifestyle",
			Price:      price("159.99"),
			SalePrice:  salePrice("129.99"),
			ImageURL:   "https://images.unsplash.com/photo-1549298916-b41d501d3772",
			Colors:     []string{"White", "Blue", "Gray"},
			IsFeatured: true,
		},
		{
			ID:         "3",
			Name:       "Elite Performance Pro",
			Category:   "Running",
			Price:      price("219.99"),
			ImageURL:   "https://images.unsplash.com/photo-1606107557195-0e29a4b5b4aa",
			Colors:     []string{"Black", "Red", "Blue"},
			IsFeatured: true,
		},
		{
			ID:         "4",
			Name:       "Urban Flex Sneakers",
			Category:   "Lifestyle",
			Price:      price("149.99"),
			ImageURL:   "https://images.unsplash.com/photo-1595950653106-6c9ebd614d3a",
			Colors:     []string{"Gray", "White", "Green"},
			IsNew:      true,
			IsFeatured: true,
		},
		{
			ID:         "5",
			Name:       "Trail Dominator",
			Category:   "Hiking",
			Price:      price("179.99"),
			ImageURL:   "https://images.unsplash.com/photo-1608231387042-66d1773070a5",
			Colors:     []string{"Brown", "Green", "Black"},
			IsFeatured: true,
		},
		{
			ID:         "6",
			Name:       "Sport Velocity X",
			Category:   "Basketball",
			Price:      price("199.99"),
			ImageURL:   "https://images.unsplash.com/photo-1605348532760-6753d2c43329",
			Colors:     []string{"Black", "Purple", "White"},
			IsFeatured: true,
		},
		{
			ID:        "7",
			Name:      "Classic Canvas",
			Category:  "Casual",
			Price:     price("89.99"),
			SalePrice: salePrice("69.99"),
			ImageURL:  "https://images.unsplash.com/photo-1525966222134-fcfa99b8ae77",
			Colors:    []string{"White", "Black", "Navy"},
		},
		{
			ID:       "8",
			Name:     "Aqua Grip Water Shoes",
			Category: "Water Sports",
			Price:    price("99.99"),
			ImageURL: "https://images.unsplash.com/photo-1604163546180-039a1781c0d2",
			Colors:   []string{"Blue", "Black", "Teal"},
		},
	}
}
