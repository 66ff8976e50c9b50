package babel

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// GetAnnotations queries annotations. No matches is an empty result, not an error.
func (c *Client) GetAnnotations(ctx context.Context, token string, filter Filter) (result *AnnotationsResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_annotations", start, err) }()

	if err = requireArg(token, "Missing token"); err != nil {
		return nil, err
	}

	rc := call{
		method: http.MethodGet,
		path:   annotationsQueryPath(filter),
		token:  token,
	}
	var out AnnotationsResult
	if err = c.do(ctx, rc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAnnotation submits data and returns the stored annotation.
func (c *Client) CreateAnnotation(ctx context.Context, token string, data Annotation, opts ...CreateOption) (*Annotation, error) {
	return c.createAnnotation(ctx, token, data, opts)
}

// CreateAnnotationDocument is CreateAnnotation for loosely-typed payloads,
// e.g. documents relayed from another system. The payload is validated the
// same way and sent as-is.
func (c *Client) CreateAnnotationDocument(ctx context.Context, token string, data map[string]any, opts ...CreateOption) (*Annotation, error) {
	return c.createAnnotation(ctx, token, data, opts)
}

func (c *Client) createAnnotation(ctx context.Context, token string, data any, opts []CreateOption) (ann *Annotation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("create_annotation", start, err) }()

	if strings.TrimSpace(token) == "" {
		err = &Error{Kind: KindInvalidToken, Message: noTokenMessage}
		return nil, err
	}
	body, doc, err := annotationDocument(data)
	if err != nil {
		return nil, err
	}
	if err = validateAnnotation(doc); err != nil {
		return nil, err
	}

	cfg := createConfig{}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}

	rc := call{
		method: http.MethodPost,
		path:   annotationsPath,
		token:  token,
		body:   body,
	}
	if cfg.synchronous {
		rc.headers = map[string]string{headerIngestSync: "true"}
	}

	var out Annotation
	if err = c.do(ctx, rc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
