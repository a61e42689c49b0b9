// Package uplift turns plain JSON/YAML records into RDF graphs using the
// JSON-LD context and semantic uplift steps of a building block.
//
// # Stages
//
// An uplift run has three parts:
//
//  1. pre: steps declared with stage "pre" rewrite the record while it is
//     still tree-structured data (jq).
//  2. materialize: the record is merged with the building block's JSON-LD
//     context ([MergeContext]) and converted to a graph.
//  3. post: steps declared with stage "post" operate on the graph (SHACL
//     rules, SPARQL updates, SPARQL CONSTRUCT reshaping).
//
// Steps run in declaration order within their stage. Step code referenced by
// URL is fetched on every application.
//
// # Usage
//
//	p := uplift.New(uplift.Options{Logger: logger})
//	res, err := p.Uplift(ctx, summary, data, "https://example.org/base/")
//	if err != nil {
//	    return err
//	}
//	fmt.Print(res.Graph.NTriples())
package uplift
