// Package covenant classifies contract clauses by legal risk.
//
// Contract text is split into clauses, each clause is matched against a
// taxonomy of risk categories built offline from a labeled corpus, and the
// clause risks are averaged into an overall Low, Medium or High verdict.
//
// Quick start:
//
//	c, err := covenant.New(
//	    covenant.WithModelDir("models/"),
//	    covenant.WithTaxonomy("data/taxonomy.json"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	ev, _ := c.Evaluate("Either party may terminate upon notice.")
//	fmt.Println(ev.OverallRisk) // Medium
//
// When the embedding model cannot be loaded, New falls back to keyword
// rules and Evaluate keeps working with similarity scores of zero.
//
// Taxonomies are built with BuildTaxonomy from a CUAD-style corpus. Builds
// are reproducible: the same corpus, model, cluster count and seed produce
// a byte-identical artifact.
//
// A Classifier is safe for concurrent use. Create once, reuse across requests.
package covenant
