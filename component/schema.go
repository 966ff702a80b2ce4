package component

import "github.com/rotisserie/eris"

// SchemaStorage persists the JSON schema a component name was first registered
// with, so later registrations of the same name can be validated against it.
type SchemaStorage interface {
	GetSchema(componentName string) ([]byte, error)
	SetSchema(componentName string, schemaData []byte) error
}

var _ SchemaStorage = (*MapSchemaStorage)(nil)

// MapSchemaStorage is the in-memory SchemaStorage used by default.
type MapSchemaStorage struct {
	schemas map[string][]byte
}

func NewMapSchemaStorage() *MapSchemaStorage {
	return &MapSchemaStorage{schemas: make(map[string][]byte)}
}

func (s *MapSchemaStorage) GetSchema(componentName string) ([]byte, error) {
	schema, ok := s.schemas[componentName]
	if !ok {
		return nil, eris.Wrap(ErrNoSchemaFound, componentName)
	}
	return schema, nil
}

func (s *MapSchemaStorage) SetSchema(componentName string, schemaData []byte) error {
	s.schemas[componentName] = schemaData
	return nil
}
