// Package schema holds the validated, in-memory model of an entity
// description.
//
// A Description is the raw form read from a file. New validates it and
// returns a Schema, or an *Error listing every problem found:
//
//	s, err := schema.New(&schema.Description{
//	    Entities: []schema.EntityDescription{{
//	        Name: "Account",
//	        Attributes: []schema.AttributeDescription{
//	            {Name: "balance", Type: "integer"},
//	            {Name: "owner", Type: "text"},
//	        },
//	    }},
//	})
//
// A Schema is immutable. Its accessors return copies of internal slices, and
// Description returns the canonical description the schema was built from.
package schema
