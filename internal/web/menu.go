package web

type menuItem struct {
	Name        string
	Description string
	Price       string
	Prep        string
}

type menuCategory struct {
	ID    string
	Label string
	Items []menuItem
}

var menu = []menuCategory{
	{ID: "coffee", Label: "Coffee", Items: []menuItem{
		{Name: "Signature Espresso", Description: "Rich Ethiopian single-origin with notes of dark chocolate and citrus", Price: "$3.50", Prep: "2-3 min"},
		{Name: "Perfect Cappuccino", Description: "Double shot with microfoam art, steamed to perfection", Price: "$5.25", Prep: "4-5 min"},
		{Name: "Flat White Perfection", Description: "Double shot with velvety microfoam, Australian-style", Price: "$5.75", Prep: "4-5 min"},
		{Name: "V60 Pour-over", Description: "Single-origin Colombian, floral notes, hand-brewed", Price: "$6.50", Prep: "6 min"},
	}},
	{ID: "specialty", Label: "Specialty Drinks", Items: []menuItem{
		{Name: "Honey Lavender Latte", Description: "Espresso, steamed milk, local honey and lavender", Price: "$6.25", Prep: "5 min"},
		{Name: "Cold Brew Tonic", Description: "Slow-steeped cold brew over tonic and citrus", Price: "$5.50", Prep: "2 min"},
	}},
	{ID: "pastries", Label: "Fresh Pastries", Items: []menuItem{
		{Name: "Butter Croissant", Description: "Laminated in house every morning", Price: "$3.75"},
		{Name: "Almond Danish", Description: "Frangipane, toasted almonds", Price: "$4.25"},
	}},
	{ID: "healthy", Label: "Healthy Options", Items: []menuItem{
		{Name: "Overnight Oats", Description: "Oat milk, chia, seasonal fruit", Price: "$6.00"},
	}},
	{ID: "seasonal", Label: "Seasonal", Items: []menuItem{
		{Name: "Pumpkin Spice Cortado", Description: "House spice blend, equal parts espresso and milk", Price: "$5.50", Prep: "4 min"},
	}},
}
