package babel

import (
	"encoding/json"
	"strings"
)

const noTokenMessage = "No persona token specified"

func requireArg(value, msg string) error {
	if strings.TrimSpace(value) == "" {
		return validationError(msg)
	}
	return nil
}

// present reports whether a decoded JSON value counts as supplied.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	default:
		return true
	}
}

// annotationDocument encodes data and returns both the wire body and its
// generic form, so typed and loosely-typed payloads share one validation gate.
func annotationDocument(data any) ([]byte, map[string]any, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, nil, &Error{Kind: KindValidation, Message: "Annotation data must be JSON-encodable", Err: err}
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil, &Error{Kind: KindValidation, Message: "Annotation data must be a JSON object", Err: err}
	}
	return body, doc, nil
}

// validateAnnotation checks the fields every annotation write must carry.
// Checks run in a fixed order and stop at the first failure.
func validateAnnotation(doc map[string]any) error {
	rawBody, ok := doc["hasBody"]
	if !ok || !present(rawBody) {
		return validationError("Missing hasBody in data array")
	}
	hasBody, ok := rawBody.(map[string]any)
	if !ok {
		return validationError("hasBody must be an array containing format and type")
	}
	if !present(hasBody["format"]) {
		return validationError("Missing hasBody.format in data array")
	}
	if !present(hasBody["type"]) {
		return validationError("Missing hasBody.type in data array")
	}
	if !present(doc["annotatedBy"]) {
		return validationError("Missing annotatedBy in data array")
	}
	rawTarget, ok := doc["hasTarget"]
	if !ok || !present(rawTarget) {
		return validationError("Missing hasTarget in data array")
	}
	hasTarget, ok := rawTarget.(map[string]any)
	if !ok || !present(hasTarget["uri"]) {
		return validationError("hasTarget must be an array containing uri")
	}
	return nil
}
