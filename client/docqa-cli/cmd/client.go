package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DocQA/backend/go/pkg/circuitbreaker"
	dhttp "DocQA/backend/go/pkg/http"
)

// apiClient talks JSON to the service. Repeated 5xx responses open a
// circuit so a broken server is not hammered by scripted loops.
type apiClient struct {
	base string
	http *dhttp.Client
}

func newAPIClient() *apiClient {
	breaker := circuitbreaker.New(circuitbreaker.Settings{FailureThreshold: 3, Timeout: 30 * time.Second})
	return &apiClient{
		base: strings.TrimRight(serverURL, "/"),
		http: dhttp.NewClient(timeout, breaker),
	}
}

// apiError carries the "detail" field of an error response.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

func (c *apiClient) doJSON(method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error creating JSON payload: %w", err)
		}
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *apiClient) upload(folderID, filePath string, out any) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.base+"/upload/"+folderID, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var body struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Detail == "" {
			body.Detail = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Detail: body.Detail}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
