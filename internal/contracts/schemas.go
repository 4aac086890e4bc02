package contracts

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"listing-service/schemas"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RequestVersionV1 - текущая версия схем тел запросов
const RequestVersionV1 = "1.0.0"

// корневые каталоги схем и суффикс, который получает имя схемы
var schemaRoots = map[string]string{
	"events":   "Event",
	"requests": "Request",
}

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	// сначала добавляем все схемы как ресурсы, чтобы работали $ref между ними
	for root := range schemaRoots {
		err := fs.WalkDir(schemas.SchemasFS, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".json") {
				return nil
			}
			file, err := schemas.SchemasFS.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			if err := compiler.AddResource(path, file); err != nil {
				log.Fatalf("failed to add schema resource %s: %v", path, err)
			}
			return nil
		})
		if err != nil {
			log.Fatalf("error walking and adding schema resources: %v", err)
		}
	}

	for root, suffix := range schemaRoots {
		err := fs.WalkDir(schemas.SchemasFS, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".json") {
				return nil
			}

			schema, err := compiler.Compile(path)
			if err != nil {
				log.Printf("WARNING: could not compile schema %s: %v. Skipping.", path, err)
				return nil
			}

			key := generateKeyFromPath(root, suffix, path)
			if key == "" {
				log.Printf("WARNING: unexpected schema path %s. Skipping.", path)
				return nil
			}
			compiledSchemas[key] = schema
			return nil
		})
		if err != nil {
			log.Fatalf("error walking and compiling schemas: %v", err)
		}
	}
}

// generateKeyFromPath преобразует путь вида "events/room-created/v1.json"
// в ключ вида "RoomCreatedEvent/1.0.0"
func generateKeyFromPath(root, suffix, path string) string {
	trimmedPath := strings.TrimPrefix(path, root+"/")
	trimmedPath = strings.TrimSuffix(trimmedPath, ".json")

	parts := strings.Split(trimmedPath, "/")
	if len(parts) != 2 || !strings.HasPrefix(parts[1], "v") {
		return ""
	}

	caser := cases.Title(language.English)

	var nameBuilder strings.Builder
	for _, p := range strings.Split(parts[0], "-") {
		nameBuilder.WriteString(caser.String(p))
	}
	nameBuilder.WriteString(suffix)

	version := strings.Replace(parts[1], "v", "", 1) + ".0.0"

	return fmt.Sprintf("%s/%s", nameBuilder.String(), version)
}

// ValidateEvent проверяет тело сообщения брокера по схеме его типа и версии
func ValidateEvent(eventType, eventVersion string, body []byte) error {
	return validate(fmt.Sprintf("%s/%s", eventType, eventVersion), body)
}

// ValidateRequest проверяет тело HTTP-запроса, например ValidateRequest("CreateApartmentRequest", body)
func ValidateRequest(requestName string, body []byte) error {
	return validate(fmt.Sprintf("%s/%s", requestName, RequestVersionV1), body)
}

func validate(key string, body []byte) error {
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema '%s' not found", key)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("body is not a valid JSON: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}
