package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"
)

// MyFilesOptions filters and pages the authenticated user's file listing.
// Zero values fall back to the server defaults (all statuses, first page,
// newest first).
type MyFilesOptions struct {
	Status string
	Page   int
	Limit  int
	SortBy string
	Order  string
}

// MyFiles lists the authenticated user's files.
func (c *Client) MyFiles(ctx context.Context, opts MyFilesOptions) (*FileList, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.SortBy != "" {
		q.Set("sortBy", opts.SortBy)
	}
	if opts.Order != "" {
		q.Set("order", opts.Order)
	}
	path := "/files/my"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var res FileList
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AvailableFiles lists the publicly available files.
func (c *Client) AvailableFiles(ctx context.Context, page, limit int) (*AvailableList, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/files/available"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var res AvailableList
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadOptions describes a file upload. AvailableFrom/AvailableTo bound the
// sharing window; zero times let the server apply the policy defaults.
type UploadOptions struct {
	FileName      string
	IsPublic      bool
	Password      string
	AvailableFrom time.Time
	AvailableTo   time.Time
	SharedWith    []string
}

// Upload sends file content as a multipart form.
func (c *Client) Upload(ctx context.Context, content io.Reader, opts UploadOptions) (*UploadedFile, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		err := writeUploadForm(form, content, opts)
		if cerr := form.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/upload", pr)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var res struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		File    UploadedFile `json:"file"`
	}
	if err := c.send(req, &res); err != nil {
		return nil, err
	}
	return &res.File, nil
}

func writeUploadForm(form *multipart.Writer, content io.Reader, opts UploadOptions) error {
	part, err := form.CreateFormFile("file", opts.FileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := form.WriteField("isPublic", strconv.FormatBool(opts.IsPublic)); err != nil {
		return err
	}
	if opts.Password != "" {
		if err := form.WriteField("password", opts.Password); err != nil {
			return err
		}
	}
	if !opts.AvailableFrom.IsZero() {
		if err := form.WriteField("availableFrom", opts.AvailableFrom.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if !opts.AvailableTo.IsZero() {
		if err := form.WriteField("availableTo", opts.AvailableTo.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	for _, email := range opts.SharedWith {
		if err := form.WriteField("sharedWith", email); err != nil {
			return err
		}
	}
	return nil
}

// FileInfo fetches the public metadata for a shared file.
func (c *Client) FileInfo(ctx context.Context, shareToken string) (*FileInfo, error) {
	var res struct {
		File FileInfo `json:"file"`
	}
	if err := c.do(ctx, http.MethodGet, "/files/"+url.PathEscape(shareToken), nil, &res); err != nil {
		return nil, err
	}
	return &res.File, nil
}

// Download streams a shared file into w and returns the server-provided file
// name. A password-protected file needs the file password, passed out of band
// in the X-File-Password header.
func (c *Client) Download(ctx context.Context, shareToken, password string, w io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/files/"+url.PathEscape(shareToken)+"/download", nil)
	if err != nil {
		return "", fmt.Errorf("building download request: %w", err)
	}
	if password != "" {
		req.Header.Set("X-File-Password", password)
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiErrorFrom(resp)
	}

	name := shareToken
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := params["filename"]; fn != "" {
			name = filepath.Base(fn)
		}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("reading download body: %w", err)
	}
	return name, nil
}

// DeleteFile removes a file the caller owns (admins may remove any file).
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.do(ctx, http.MethodDelete, "/files/info/"+url.PathEscape(fileID), nil, nil)
}
