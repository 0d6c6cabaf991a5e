// Package schema holds the data-driven field-schema table: for the shared
// default record and for every destination, an ordered list of field
// descriptors plus the destination's capability declaration.
//
// Tables are built once at configuration time, either from YAML/JSON files
// (LoadFS) or from the component schemas of an OpenAPI document
// (LoadOpenAPI), and are read-only afterwards.
package schema
