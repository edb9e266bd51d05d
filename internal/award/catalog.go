package award

// Sticker is a purchasable award. Catalog entries are immutable
// reference data for the life of the process.
type Sticker struct {
	ID          string
	Name        string
	Description string
	CoinPrice   int
	IsAnimated  bool
	IsPremium   bool
}

// catalog is the built-in sticker set.
var catalog = []Sticker{
	{
		ID:          "savage-roast",
		Name:        "Savage Roast",
		Description: "For the most brutal roasts that leave no survivors",
		CoinPrice:   100,
	},
	{
		ID:          "wholesome-roast",
		Name:        "Wholesome Roast",
		Description: "When the roast is savage but somehow still wholesome",
		CoinPrice:   150,
	},
	{
		ID:          "bug-hunter",
		Name:        "Bug Hunter",
		Description: "For spotting those sneaky bugs in the code",
		CoinPrice:   200,
	},
	{
		ID:          "code-master",
		Name:        "Code Master",
		Description: "Acknowledge exceptional code roasting skills",
		CoinPrice:   250,
		IsPremium:   true,
	},
	{
		ID:          "legendary-burn",
		Name:        "Legendary Burn",
		Description: "For roasts that will be remembered for generations",
		CoinPrice:   500,
		IsAnimated:  true,
		IsPremium:   true,
	},
	{
		ID:          "premium-roast",
		Name:        "Premium Roast",
		Description: "The finest, most sophisticated roast in town",
		CoinPrice:   1000,
		IsAnimated:  true,
		IsPremium:   true,
	},
}

// Catalog returns a copy of the sticker catalog.
func Catalog() []Sticker {
	out := make([]Sticker, len(catalog))
	copy(out, catalog)
	return out
}

// FindSticker looks up a catalog entry by id.
func FindSticker(id string) (Sticker, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Sticker{}, false
}
