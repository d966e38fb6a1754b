package model

// ListOptions carries pagination parameters. Listings are ordered newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

// WithDefaults returns a copy with a non-positive Limit replaced by def and a
// negative Offset clamped to zero.
func (o ListOptions) WithDefaults(def int) ListOptions {
	if o.Limit <= 0 {
		o.Limit = def
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
