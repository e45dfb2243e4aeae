package orm

var _ CloneableData = (*Counter)(nil)

// Validate is always succesful.
func (c *Counter) Validate() error {
	return nil
}

// Copy produces a new copy to handle modifications.
func (c *Counter) Copy() CloneableData {
	return &Counter{
		Count: c.Count,
	}
}
