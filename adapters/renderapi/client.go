package renderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// Client talks to the render service over HTTP. It implements
// blueprint.Renderer: one multipart request per render, one artifact back.
// The service does the actual image math; the client only moves bytes and
// maps failure statuses onto workflow error kinds.
type Client struct {
	BaseURL string
	Client  *http.Client
}

// New creates a render client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL}
}

// Render posts the source file and options to /processFile and decodes the
// artifact metadata. A 415 from the service means the file type was refused;
// the service stays authoritative over which types it accepts.
func (c *Client) Render(ctx context.Context, file blueprint.SourceFile, opts blueprint.PrintOptions) (blueprint.RenderedImage, error) {
	if c == nil {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindInternal, "render client is nil", nil)
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindValidation, "render service URL is required", nil)
	}
	if file.Empty() {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindValidation, "no file to render", nil)
	}

	payload, err := json.Marshal(opts)
	if err != nil {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindEncoding, "options payload invalid", err)
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreatePart(filePartHeader(file))
	if err != nil {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindInternal, "render request failed", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindInternal, "render request failed", err)
	}
	if err := form.WriteField("options", string(payload)); err != nil {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindInternal, "render request failed", err)
	}
	if err := form.Close(); err != nil {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindInternal, "render request failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("processFile"), body)
	if err != nil {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindInternal, "render request failed", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return blueprint.RenderedImage{}, ctx.Err()
		}
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindExternal, "render service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnsupportedMediaType {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindUnsupportedMedia, fmt.Sprintf("renderer does not support %q", file.DeclaredType()), nil)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindExternal, fmt.Sprintf("render service returned status %d", resp.StatusCode), nil)
	}

	var img blueprint.RenderedImage
	if err := json.NewDecoder(resp.Body).Decode(&img); err != nil {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindExternal, "render response invalid", err)
	}
	if img.URL == "" {
		return blueprint.RenderedImage{}, blueprint.NewError(blueprint.KindExternal, "render response missing image_url", nil)
	}
	return img, nil
}

// Fetch downloads a rendered artifact for display or spooling. Relative
// artifact URLs resolve against the service base URL. The caller closes the
// reader.
func (c *Client) Fetch(ctx context.Context, img blueprint.RenderedImage) (io.ReadCloser, string, error) {
	if c == nil {
		return nil, "", blueprint.NewError(blueprint.KindInternal, "render client is nil", nil)
	}
	if img.URL == "" {
		return nil, "", blueprint.NewError(blueprint.KindValidation, "artifact URL is required", nil)
	}

	target := img.URL
	if strings.HasPrefix(target, "/") {
		target = strings.TrimRight(c.BaseURL, "/") + target
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", blueprint.NewError(blueprint.KindInternal, "artifact request failed", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", blueprint.NewError(blueprint.KindExternal, "artifact fetch failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", blueprint.NewError(blueprint.KindExternal, fmt.Sprintf("artifact fetch returned status %d", resp.StatusCode), nil)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func filePartHeader(file blueprint.SourceFile) textproto.MIMEHeader {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	contentType := file.DeclaredType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	return header
}
