package modules

// Pager holds the pagination controls state of a rendered list
type Pager struct {
	Page  int
	Size  int
	Total int
}

// HasPrev is true past the first page
func (p Pager) HasPrev() bool {
	return p.Page > 1
}

// HasNext is true while page*size < total
func (p Pager) HasNext() bool {
	return p.Page*p.Size < p.Total
}
