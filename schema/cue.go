package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadError is a typed loading failure with a stable code.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants shared by loader call sites.
const (
	ErrCodeNotFound    = "S001" // Path not found or not a directory
	ErrCodeNoFiles     = "S002" // No CUE files found
	ErrCodeLoadFailed  = "S003" // CUE load failed
	ErrCodeBuildFailed = "S004" // CUE build failed
	ErrCodeDecode      = "S005" // Entity decode failed
	ErrCodeConflict    = "S006" // Duplicate entity
)

// cueField mirrors one field entry in a CUE entity definition.
type cueField struct {
	Type        string `json:"type"`
	StorageName string `json:"storageName,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Indexed     bool   `json:"indexed,omitempty"`
}

// LoadDir loads entity definitions from every .cue file under dir and
// returns a populated registry. Definitions live under the top-level
// "entity" struct, keyed by collection name:
//
//	entity: user: {
//		schemafull: true
//		fields: name: {type: "string", required: true}
//	}
func LoadDir(dir string) (*Registry, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	registry := NewRegistry()
	var errs []error

	entitiesVal := value.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return registry, []error{&LoadError{Code: ErrCodeDecode, Message: "no entity definitions found"}}
	}

	iter, iterErr := entitiesVal.Fields()
	if iterErr != nil {
		return registry, []error{&LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("iterating entities: %v", iterErr)}}
	}
	for iter.Next() {
		entity, decodeErr := decodeEntity(iter.Label(), iter.Value())
		if decodeErr != nil {
			errs = append(errs, decodeErr)
			continue
		}
		if regErr := registry.Register(entity); regErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeConflict, Message: regErr.Error()})
		}
	}

	return registry, errs
}

// decodeEntity converts one CUE entity value into an Entity. Field order
// follows the CUE source so DDL output is stable.
func decodeEntity(collection string, value cue.Value) (Entity, error) {
	entity := Entity{Collection: collection, Schemafull: true}

	if sf := value.LookupPath(cue.ParsePath("schemafull")); sf.Exists() {
		b, err := sf.Bool()
		if err != nil {
			return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity.%s.schemafull: %v", collection, err)}
		}
		entity.Schemafull = b
	}

	fieldsVal := value.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity.%s: missing fields", collection)}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity.%s.fields: %v", collection, err)}
	}
	for iter.Next() {
		var cf cueField
		if err := iter.Value().Decode(&cf); err != nil {
			return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity.%s.fields.%s: %v", collection, iter.Label(), err)}
		}
		if cf.Type == "" {
			return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity.%s.fields.%s: missing type", collection, iter.Label())}
		}
		entity.Fields = append(entity.Fields, Field{
			Name:        iter.Label(),
			StorageName: cf.StorageName,
			Type:        cf.Type,
			Required:    cf.Required,
			Default:     cf.Default,
			Indexed:     cf.Indexed,
		})
	}
	if len(entity.Fields) == 0 {
		return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity.%s: no fields defined", collection)}
	}

	return entity, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
