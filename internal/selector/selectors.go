package selector

type Selector string

func (s Selector) String() string {
	return string(s)
}

func (s Selector) IsEmpty() bool {
	return s == ""
}

const (
	DefaultContainer   Selector = ".listing, .ad-item, article"
	DefaultTitle       Selector = "h2, h3, .title"
	DefaultPrice       Selector = ".price"
	DefaultLocation    Selector = ".location"
	DefaultDescription Selector = ".description, p"
	DefaultLink        Selector = "a"
	DefaultImage       Selector = "img"
	DefaultAttributes  Selector = ".attributes li, .details li"
)

// Set is the per-source selector configuration stored with a scraping source.
// Fields left empty fall back to the defaults above.
type Set struct {
	Container   Selector `json:"container,omitempty"`
	Title       Selector `json:"title,omitempty"`
	Price       Selector `json:"price,omitempty"`
	Location    Selector `json:"location,omitempty"`
	Description Selector `json:"description,omitempty"`
	Link        Selector `json:"link,omitempty"`
	Image       Selector `json:"image,omitempty"`
	Attributes  Selector `json:"attributes,omitempty"`
}

func (s Set) WithDefaults() Set {
	s.Container = orDefault(s.Container, DefaultContainer)
	s.Title = orDefault(s.Title, DefaultTitle)
	s.Price = orDefault(s.Price, DefaultPrice)
	s.Location = orDefault(s.Location, DefaultLocation)
	s.Description = orDefault(s.Description, DefaultDescription)
	s.Link = orDefault(s.Link, DefaultLink)
	s.Image = orDefault(s.Image, DefaultImage)
	s.Attributes = orDefault(s.Attributes, DefaultAttributes)

	return s
}

func orDefault(s Selector, def Selector) Selector {
	if s.IsEmpty() {
		return def
	}

	return s
}
