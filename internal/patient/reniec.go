package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrDNILookupFailed = errors.New("national registry lookup failed")
)

// PersonaRegistro is the subset of registry data the clinic consumes.
type PersonaRegistro struct {
	DNI             string
	Nombres         string
	ApellidoPaterno string
	ApellidoMaterno string
}

// RegistryClient resolves an 8-digit DNI against the external national
// registry. The core treats it as an opaque boundary.
type RegistryClient interface {
	LookupDNI(ctx context.Context, dni string) (*PersonaRegistro, error)
}

type httpRegistryClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPRegistryClient talks to an apiperu.dev-style DNI endpoint.
func NewHTTPRegistryClient(baseURL, token string) RegistryClient {
	return &httpRegistryClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type registryResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Numero          string `json:"numero"`
		Nombres         string `json:"nombres"`
		ApellidoPaterno string `json:"apellido_paterno"`
		ApellidoMaterno string `json:"apellido_materno"`
	} `json:"data"`
}

func (c *httpRegistryClient) LookupDNI(ctx context.Context, dni string) (*PersonaRegistro, error) {
	body, err := json.Marshal(map[string]string{"dni": dni})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDNILookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDNILookupFailed, resp.StatusCode)
	}

	var parsed registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrDNILookupFailed, err)
	}
	if !parsed.Success {
		return nil, ErrDNILookupFailed
	}

	return &PersonaRegistro{
		DNI:             dni,
		Nombres:         parsed.Data.Nombres,
		ApellidoPaterno: parsed.Data.ApellidoPaterno,
		ApellidoMaterno: parsed.Data.ApellidoMaterno,
	}, nil
}
