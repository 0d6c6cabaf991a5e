package crosspost

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/crosspost-dev/go-crosspost/pkg/schema"
)

// LoadSchemaFS loads a field-schema table from YAML/JSON files in fsys.
func LoadSchemaFS(fsys fs.FS) (schema.Table, error) {
	return schema.LoadFS(fsys)
}

// LoadSchemaDir loads a field-schema table from a directory on disk.
func LoadSchemaDir(dir string) (schema.Table, error) {
	return schema.LoadFS(os.DirFS(dir))
}

// LoadBuiltinSchema loads the embedded table describing the bundled
// destinations.
func LoadBuiltinSchema() (schema.Table, error) {
	return schema.LoadFS(schema.EmbeddedFS())
}

// LoadOpenAPI builds a field-schema table from the components of an OpenAPI
// 3 document.
func LoadOpenAPI(ctx context.Context, data []byte) (schema.Table, error) {
	return schema.LoadOpenAPI(ctx, data)
}

// LoadOpenAPIFile reads path and passes it to LoadOpenAPI.
func LoadOpenAPIFile(ctx context.Context, path string) (schema.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Table{}, fmt.Errorf("crosspost: read %s: %w", path, err)
	}
	return schema.LoadOpenAPI(ctx, data)
}
