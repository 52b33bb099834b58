package covenant

// Category is one entry of the loaded risk taxonomy.
type Category struct {
	ClusterID int
	Label     string
	Risk      string // Low, Medium or High
	Members   int    // corpus clauses in the cluster
}

// Categories returns the taxonomy entries in cluster order. It is empty in
// keyword mode, where no taxonomy is loaded.
func (c *Classifier) Categories() []Category {
	if c.taxonomy == nil {
		return nil
	}
	out := make([]Category, len(c.taxonomy.Entries))
	for i, e := range c.taxonomy.Entries {
		out[i] = Category{
			ClusterID: e.ClusterID,
			Label:     e.Label,
			Risk:      e.Risk.String(),
			Members:   e.MemberCount,
		}
	}
	return out
}
