package catalog

const (
	ProductsKey = "miraj-xheat-products"
	RatesKey    = "miraj-xheat-rates"
)

var DefaultRates = ExchangeRates{BDT: 110, INR: 90}

// DefaultProducts returns a fresh copy of the built-in catalog.
func DefaultProducts() []Product {
	return cloneProducts(defaultProducts)
}

var defaultProducts = []Product{
	{
		ID:          "nova-vpn",
		Name:        "Nova VPN",
		Subtitle:    "Private mobile tunnel",
		Description: "Encrypted tunnel with servers in 30 regions.",
		Image:       "https://images.example.com/nova-vpn.jpg",
		Categories:  []string{"mobile"},
		Prices: []PriceOption{
			{Duration: "1 Day", BDT: 110, INR: 90, USDT: 1},
			{Duration: "7 Days", BDT: 550, INR: 450, USDT: 5},
			{Duration: "1 Month", BDT: 1650, INR: 1350, USDT: 15},
		},
	},
	{
		ID:         "pixel-forge",
		Name:       "Pixel Forge",
		Subtitle:   "Desktop asset toolkit",
		Image:      "https://images.example.com/pixel-forge.jpg",
		VideoURL:   "https://www.youtube.com/watch?v=pixelforge",
		Categories: []string{"pc"},
		Prices: []PriceOption{
			{Duration: "1 Month", BDT: 880, INR: 720, USDT: 8},
			{Duration: "1 Year", BDT: 6600, INR: 5400, USDT: 60, Note: "(includes updates)"},
		},
	},
	{
		ID:          "aim-coach",
		Name:        "Aim Coach",
		Subtitle:    "Reaction and accuracy trainer",
		Description: "Daily drills with progress tracking.",
		Image:       "https://images.example.com/aim-coach.jpg",
		Categories:  []string{"mobile", "pc"},
		Prices: []PriceOption{
			{Duration: "1 Day", BDT: 220, INR: 180, USDT: 2},
			{Duration: "1 Week", BDT: 990, INR: 810, USDT: 9},
			{Duration: "1 Month", BDT: 2750, INR: 2250, USDT: 25},
		},
	},
	{
		ID:         "stream-kit",
		Name:       "Stream Kit",
		Subtitle:   "Overlays and alerts",
		Image:      "https://images.example.com/stream-kit.jpg",
		VideoURL:   "https://www.youtube.com/watch?v=streamkit",
		Categories: []string{"pc"},
		Prices: []PriceOption{
			{Duration: "1 Month", BDT: 1320, INR: 1080, USDT: 12},
			{Duration: "Lifetime", BDT: 5500, INR: 4500, USDT: 0, Note: "(BDT/INR only)"},
		},
	},
}
