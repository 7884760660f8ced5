package devserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dath-251-thuanle/secureshare/devserver"
)

type testBackend struct {
	url   string
	store *devserver.MemStore
	clock *time.Time
}

func setupBackend(t *testing.T) *testBackend {
	t.Helper()
	store := devserver.NewMemStore()
	clock := time.Now().UTC()

	srv, err := devserver.New(store,
		devserver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		devserver.WithClock(func() time.Time { return clock }),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testBackend{url: ts.URL, store: store, clock: &clock}
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func register(t *testing.T, b *testBackend, username, email, password string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, b.url+"/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, "register: %v", body)
	require.NotEmpty(t, body["userId"])
}

func login(t *testing.T, b *testBackend, email, password string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, b.url+"/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, "login: %v", body)
	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)
	return token
}

// enableTOTP runs the setup/verify handshake and returns the active secret.
func enableTOTP(t *testing.T, b *testBackend, token string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, b.url+"/auth/totp/setup", token, struct{}{})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	setup, ok := body["totpSetup"].(map[string]any)
	require.True(t, ok)
	secret, _ := setup["secret"].(string)
	require.NotEmpty(t, secret)
	require.Contains(t, setup["otpauthUrl"], "otpauth://totp/")

	code, err := devserver.TOTPCode(secret, *b.clock)
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPost, b.url+"/auth/totp/verify", token, map[string]string{"code": code})
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, "verify: %v", body)
	return secret
}

func uploadFile(t *testing.T, b *testBackend, token string, fields map[string]string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", fields["filename"])
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		if k == "filename" {
			continue
		}
		require.NoError(t, form.WriteField(k, v))
	}
	require.NoError(t, form.Close())

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, b.url+"/files/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func mustUpload(t *testing.T, b *testBackend, token string, fields map[string]string, content []byte) map[string]any {
	t.Helper()
	resp := uploadFile(t, b, token, fields, content)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "upload: %v", body)
	file, ok := body["file"].(map[string]any)
	require.True(t, ok)
	return file
}

func download(t *testing.T, b *testBackend, shareToken, token, password string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, b.url+"/files/"+shareToken+"/download", nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if password != "" {
		req.Header.Set("X-File-Password", password)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")

	resp := doJSON(t, http.MethodPost, b.url+"/auth/register", "", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": "pw",
	})
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email already exists", body["message"])

	resp = doJSON(t, http.MethodPost, b.url+"/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "pw",
	})
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Username already exists", body["message"])
}

func TestLoginLifecycle(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")

	resp := doJSON(t, http.MethodPost, b.url+"/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "nope",
	})
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["message"])

	token := login(t, b, "alice@example.com", "hunter2!")

	resp = doJSON(t, http.MethodGet, b.url+"/user", token, nil)
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, false, user["totpEnabled"])
}

func TestLogoutRevokesToken(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	resp := doJSON(t, http.MethodPost, b.url+"/auth/logout", token, struct{}{})
	decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, b.url+"/user", token, nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTOTPLoginLifecycle(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")
	secret := enableTOTP(t, b, token)

	// Password login now yields a challenge, not a token.
	resp := doJSON(t, http.MethodPost, b.url+"/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "hunter2!",
	})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["requireTOTP"])
	assert.Nil(t, body["accessToken"])
	cid, _ := body["cid"].(string)
	require.NotEmpty(t, cid)

	// Wrong code is rejected; the challenge survives.
	resp = doJSON(t, http.MethodPost, b.url+"/auth/login/totp", "", map[string]string{
		"cid": cid, "code": "000000",
	})
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired TOTP code", body["message"])

	code, err := devserver.TOTPCode(secret, *b.clock)
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPost, b.url+"/auth/login/totp", "", map[string]string{
		"cid": cid, "code": code,
	})
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["accessToken"])
	assert.Equal(t, true, body["user"].(map[string]any)["totpEnabled"])

	// The challenge is single-use.
	resp = doJSON(t, http.MethodPost, b.url+"/auth/login/totp", "", map[string]string{
		"cid": cid, "code": code,
	})
	decodeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginChallengeExpires(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")
	secret := enableTOTP(t, b, token)

	resp := doJSON(t, http.MethodPost, b.url+"/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "hunter2!",
	})
	body := decodeBody(t, resp)
	cid, _ := body["cid"].(string)
	require.NotEmpty(t, cid)

	*b.clock = b.clock.Add(10 * time.Minute)

	code, err := devserver.TOTPCode(secret, *b.clock)
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPost, b.url+"/auth/login/totp", "", map[string]string{
		"cid": cid, "code": code,
	})
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Login session expired. Please restart the login flow.", body["message"])
}

func TestTOTPDisableRequiresValidCode(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")
	secret := enableTOTP(t, b, token)

	resp := doJSON(t, http.MethodPost, b.url+"/auth/totp/disable", token, map[string]string{"code": "000000"})
	decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	code, err := devserver.TOTPCode(secret, *b.clock)
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPost, b.url+"/auth/totp/disable", token, map[string]string{"code": code})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["totpEnabled"])

	// Back to plain password login.
	login(t, b, "alice@example.com", "hunter2!")
}

func TestUploadAppliesPolicyDefaults(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	file := mustUpload(t, b, token, map[string]string{
		"filename": "notes.txt",
		"isPublic": "true",
	}, []byte("hello"))

	assert.NotEmpty(t, file["shareToken"])
	assert.Equal(t, "/f/"+file["shareToken"].(string), file["shareLink"])

	from, err := time.Parse(time.RFC3339, file["availableFrom"].(string))
	require.NoError(t, err)
	to, err := time.Parse(time.RFC3339, file["availableTo"].(string))
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, to.Sub(from))
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	policy, err := b.store.Policy()
	require.NoError(t, err)
	policy.MaxFileSizeMB = 1
	require.NoError(t, b.store.PutPolicy(policy))

	resp := uploadFile(t, b, token, map[string]string{
		"filename": "big.bin",
		"isPublic": "true",
	}, bytes.Repeat([]byte("x"), 2*1024*1024))
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "File size exceeds the system limit", body["message"])
}

func TestUploadRejectsShortPassword(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	resp := uploadFile(t, b, token, map[string]string{
		"filename": "x.txt",
		"isPublic": "true",
		"password": "abc",
	}, []byte("data"))
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password too short", body["message"])
}

func TestUploadRejectsInvalidWindow(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	now := *b.clock
	resp := uploadFile(t, b, token, map[string]string{
		"filename":      "x.txt",
		"isPublic":      "true",
		"availableFrom": now.Format(time.RFC3339),
		"availableTo":   now.Add(10 * time.Minute).Format(time.RFC3339),
	}, []byte("data"))
	decodeBody(t, resp)
	// 10 minutes is below the 1 hour policy minimum.
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = uploadFile(t, b, token, map[string]string{
		"filename":      "x.txt",
		"isPublic":      "true",
		"availableFrom": "not-a-date",
	}, []byte("data"))
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid datetime format, use ISO format", body["message"])
}

func TestAnonymousUploadMustBePublic(t *testing.T) {
	b := setupBackend(t)
	resp := uploadFile(t, b, "", map[string]string{
		"filename": "x.txt",
		"isPublic": "false",
	}, []byte("data"))
	decodeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = uploadFile(t, b, "", map[string]string{
		"filename": "x.txt",
		"isPublic": "true",
	}, []byte("data"))
	decodeBody(t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDownloadWindowRules(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	now := *b.clock
	file := mustUpload(t, b, token, map[string]string{
		"filename":      "later.txt",
		"isPublic":      "true",
		"availableFrom": now.Add(2 * time.Hour).Format(time.RFC3339),
		"availableTo":   now.Add(48 * time.Hour).Format(time.RFC3339),
	}, []byte("patience"))
	shareToken := file["shareToken"].(string)

	// Pending: locked for strangers, fine for the owner.
	resp := download(t, b, shareToken, "", "")
	decodeBody(t, resp)
	assert.Equal(t, http.StatusLocked, resp.StatusCode)

	resp = download(t, b, shareToken, token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	content, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "patience", string(content))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="later.txt"`)

	// Active.
	*b.clock = now.Add(3 * time.Hour)
	resp = download(t, b, shareToken, "", "")
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Expired beats everything, owner included.
	*b.clock = now.Add(72 * time.Hour)
	resp = download(t, b, shareToken, token, "")
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Equal(t, "File has expired", body["message"])

	// Info follows the same expiry rule.
	resp = doJSON(t, http.MethodGet, b.url+"/files/"+shareToken, "", nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestDownloadVisibilityRules(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	register(t, b, "bob", "bob@example.com", "hunter2!")
	register(t, b, "carol", "carol@example.com", "hunter2!")
	aliceToken := login(t, b, "alice@example.com", "hunter2!")
	bobToken := login(t, b, "bob@example.com", "hunter2!")
	carolToken := login(t, b, "carol@example.com", "hunter2!")

	file := mustUpload(t, b, aliceToken, map[string]string{
		"filename":   "secret.txt",
		"isPublic":   "false",
		"sharedWith": "bob@example.com",
	}, []byte("for bob"))
	shareToken := file["shareToken"].(string)

	// Anonymous gets 401, a user outside the list 403, the listed user and
	// the owner succeed.
	resp := download(t, b, shareToken, "", "")
	decodeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = download(t, b, shareToken, carolToken, "")
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You are not in the shared list", body["message"])

	for _, token := range []string{bobToken, aliceToken} {
		resp = download(t, b, shareToken, token, "")
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestDownloadPasswordRules(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	file := mustUpload(t, b, token, map[string]string{
		"filename": "locked.txt",
		"isPublic": "true",
		"password": "open-sesame",
	}, []byte("treasure"))
	shareToken := file["shareToken"].(string)

	resp := download(t, b, shareToken, "", "")
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Password required", body["error"])

	resp = download(t, b, shareToken, "", "wrong")
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Incorrect password", body["error"])

	resp = download(t, b, shareToken, "", "open-sesame")
	content, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "treasure", string(content))
}

func TestMyFilesFilterSortAndPaginate(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	now := *b.clock
	names := []string{"banana.txt", "apple.txt", "cherry.txt"}
	for _, name := range names {
		mustUpload(t, b, token, map[string]string{"filename": name, "isPublic": "true"}, []byte(name))
	}
	// One pending file on top.
	mustUpload(t, b, token, map[string]string{
		"filename":      "later.txt",
		"isPublic":      "true",
		"availableFrom": now.Add(2 * time.Hour).Format(time.RFC3339),
		"availableTo":   now.Add(48 * time.Hour).Format(time.RFC3339),
	}, []byte("later"))

	// Without an explicit order the sort is descending, so Z comes first.
	resp := doJSON(t, http.MethodGet, b.url+"/files/my?status=active&sortBy=fileName", token, nil)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	files := body["files"].([]any)
	require.Len(t, files, 3)
	assert.Equal(t, "cherry.txt", files[0].(map[string]any)["fileName"])
	assert.Equal(t, "apple.txt", files[2].(map[string]any)["fileName"])

	resp = doJSON(t, http.MethodGet, b.url+"/files/my?status=active&sortBy=fileName&order=asc", token, nil)
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	files = body["files"].([]any)
	require.Len(t, files, 3)
	assert.Equal(t, "apple.txt", files[0].(map[string]any)["fileName"])
	assert.Equal(t, "banana.txt", files[1].(map[string]any)["fileName"])
	assert.Equal(t, "cherry.txt", files[2].(map[string]any)["fileName"])

	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(3), summary["activeFiles"])
	assert.Equal(t, float64(1), summary["pendingFiles"])

	resp = doJSON(t, http.MethodGet, b.url+"/files/my?page=2&limit=3", token, nil)
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pg := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pg["currentPage"])
	assert.Equal(t, float64(2), pg["totalPages"])
	assert.Equal(t, float64(4), pg["totalFiles"])
	assert.Len(t, body["files"].([]any), 1)
}

func TestAvailableFilesListsOnlyActive(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	token := login(t, b, "alice@example.com", "hunter2!")

	now := *b.clock
	mustUpload(t, b, token, map[string]string{"filename": "now.txt", "isPublic": "true"}, []byte("now"))
	mustUpload(t, b, token, map[string]string{
		"filename":      "later.txt",
		"isPublic":      "true",
		"availableFrom": now.Add(2 * time.Hour).Format(time.RFC3339),
		"availableTo":   now.Add(48 * time.Hour).Format(time.RFC3339),
	}, []byte("later"))

	resp := doJSON(t, http.MethodGet, b.url+"/files/available", "", nil)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	files := body["files"].([]any)
	require.Len(t, files, 1)
	entry := files[0].(map[string]any)
	assert.Equal(t, "now.txt", entry["filename"])
	assert.Equal(t, "alice@example.com", entry["owner"])
	assert.Equal(t, false, entry["haspassword"])
	assert.NotEmpty(t, entry["sharetoken"])
}

func TestDeleteFileOwnership(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	register(t, b, "bob", "bob@example.com", "hunter2!")
	require.NoError(t, devserver.SeedAdmin(b.store, "root", "root@example.com", "s3cret-admin"))

	aliceToken := login(t, b, "alice@example.com", "hunter2!")
	bobToken := login(t, b, "bob@example.com", "hunter2!")
	adminToken := login(t, b, "root@example.com", "s3cret-admin")

	first := mustUpload(t, b, aliceToken, map[string]string{"filename": "a.txt", "isPublic": "true"}, []byte("a"))
	second := mustUpload(t, b, aliceToken, map[string]string{"filename": "b.txt", "isPublic": "true"}, []byte("b"))

	resp := doJSON(t, http.MethodDelete, b.url+"/files/info/"+first["id"].(string), bobToken, nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, b.url+"/files/info/"+first["id"].(string), aliceToken, nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Admins may delete anyone's file.
	resp = doJSON(t, http.MethodDelete, b.url+"/files/info/"+second["id"].(string), adminToken, nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, b.url+"/files/info/"+second["id"].(string), aliceToken, nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFileDetailsOwnerView(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	register(t, b, "bob", "bob@example.com", "hunter2!")
	aliceToken := login(t, b, "alice@example.com", "hunter2!")
	bobToken := login(t, b, "bob@example.com", "hunter2!")

	uploaded := mustUpload(t, b, aliceToken, map[string]string{"filename": "report.pdf", "isPublic": "true"}, []byte("pdf"))
	fileID := uploaded["id"].(string)

	resp := doJSON(t, http.MethodGet, b.url+"/files/info/"+fileID, "", nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, b.url+"/files/info/"+fileID, bobToken, nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, b.url+"/files/info/"+fileID, aliceToken, nil)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	file := body["file"].(map[string]any)
	assert.Equal(t, "report.pdf", file["fileName"])
	assert.Equal(t, "active", file["status"])
	assert.Equal(t, float64(0), file["downloadCount"])
	// Default validity is 7 days.
	assert.Equal(t, float64(168), file["hoursRemaining"])
	assert.NotContains(t, file, "password_hash")
}

func TestFileStatsTrackDownloads(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	register(t, b, "bob", "bob@example.com", "hunter2!")
	aliceToken := login(t, b, "alice@example.com", "hunter2!")
	bobToken := login(t, b, "bob@example.com", "hunter2!")

	uploaded := mustUpload(t, b, aliceToken, map[string]string{"filename": "data.csv", "isPublic": "true"}, []byte("a,b"))
	fileID := uploaded["id"].(string)
	shareToken := uploaded["shareToken"].(string)

	// Two downloads by bob and one anonymous one: three downloads total,
	// one distinct authenticated downloader.
	for range 2 {
		resp := download(t, b, shareToken, bobToken, "")
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := download(t, b, shareToken, "", "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, b.url+"/files/stats/"+fileID, aliceToken, nil)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fileID, body["fileId"])
	stats := body["statistics"].(map[string]any)
	assert.Equal(t, float64(3), stats["downloadCount"])
	assert.Equal(t, float64(1), stats["uniqueDownloaders"])
	assert.Equal(t, b.clock.Format(time.RFC3339), stats["lastDownloadedAt"])

	resp = doJSON(t, http.MethodGet, b.url+"/files/stats/"+fileID, bobToken, nil)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFileStatsUnavailableForAnonymousUploads(t *testing.T) {
	b := setupBackend(t)
	require.NoError(t, devserver.SeedAdmin(b.store, "root", "root@example.com", "s3cret-admin"))
	adminToken := login(t, b, "root@example.com", "s3cret-admin")

	uploaded := mustUpload(t, b, "", map[string]string{"filename": "drop.txt", "isPublic": "true"}, []byte("x"))
	fileID := uploaded["id"].(string)

	resp := doJSON(t, http.MethodGet, b.url+"/files/stats/"+fileID, adminToken, nil)
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Statistics not available for anonymous uploads", body["message"])
}

func TestDownloadHistoryNewestFirstWithPagination(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	register(t, b, "bob", "bob@example.com", "hunter2!")
	aliceToken := login(t, b, "alice@example.com", "hunter2!")
	bobToken := login(t, b, "bob@example.com", "hunter2!")

	uploaded := mustUpload(t, b, aliceToken, map[string]string{"filename": "song.mp3", "isPublic": "true"}, []byte("mp3"))
	fileID := uploaded["id"].(string)
	shareToken := uploaded["shareToken"].(string)

	resp := download(t, b, shareToken, bobToken, "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = download(t, b, shareToken, "", "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, b.url+"/files/download-history/"+fileID, aliceToken, nil)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := body["history"].([]any)
	require.Len(t, history, 2)

	// The anonymous download is newest and carries no downloader.
	newest := history[0].(map[string]any)
	assert.Nil(t, newest["downloader"])
	assert.Equal(t, true, newest["downloadCompleted"])
	older := history[1].(map[string]any)
	downloader := older["downloader"].(map[string]any)
	assert.Equal(t, "bob", downloader["username"])
	assert.Equal(t, "bob@example.com", downloader["email"])

	resp = doJSON(t, http.MethodGet, b.url+"/files/download-history/"+fileID+"?limit=1&page=2", aliceToken, nil)
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["history"].([]any), 1)
	pg := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pg["currentPage"])
	assert.Equal(t, float64(2), pg["totalPages"])
	assert.Equal(t, float64(2), pg["totalRecords"])
}

func TestPreviewServesInlineWithoutCountingDownloads(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	aliceToken := login(t, b, "alice@example.com", "hunter2!")

	uploaded := mustUpload(t, b, aliceToken, map[string]string{
		"filename": "notes.txt",
		"isPublic": "true",
		"password": "letmein",
	}, []byte("hello"))
	fileID := uploaded["id"].(string)
	shareToken := uploaded["shareToken"].(string)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, b.url+"/files/"+shareToken+"/preview", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err = http.NewRequestWithContext(t.Context(), http.MethodGet, b.url+"/files/"+shareToken+"/preview", nil)
	require.NoError(t, err)
	req.Header.Set("X-File-Password", "letmein")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "inline")
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	resp = doJSON(t, http.MethodGet, b.url+"/files/stats/"+fileID, aliceToken, nil)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := body["statistics"].(map[string]any)
	assert.Equal(t, float64(0), stats["downloadCount"])
}

func TestPolicyUpdateMergesPartialChanges(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	require.NoError(t, devserver.SeedAdmin(b.store, "root", "root@example.com", "s3cret-admin"))
	userToken := login(t, b, "alice@example.com", "hunter2!")
	adminToken := login(t, b, "root@example.com", "s3cret-admin")

	// Reading the policy is open; changing it is admin-only.
	resp := doJSON(t, http.MethodGet, b.url+"/admin/policy", "", nil)
	policy := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(50), policy["maxFileSizeMB"])

	resp = doJSON(t, http.MethodPatch, b.url+"/admin/policy", userToken, map[string]int{"maxFileSizeMB": 10})
	decodeBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodPatch, b.url+"/admin/policy", adminToken, map[string]int{"maxFileSizeMB": 10})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	policy = body["policy"].(map[string]any)
	assert.Equal(t, float64(10), policy["maxFileSizeMB"])
	// Untouched fields keep their values.
	assert.Equal(t, float64(7), policy["defaultValidityDays"])
}

func TestCleanupPurgesExpiredFiles(t *testing.T) {
	b := setupBackend(t)
	register(t, b, "alice", "alice@example.com", "hunter2!")
	require.NoError(t, devserver.SeedAdmin(b.store, "root", "root@example.com", "s3cret-admin"))
	aliceToken := login(t, b, "alice@example.com", "hunter2!")
	adminToken := login(t, b, "root@example.com", "s3cret-admin")

	mustUpload(t, b, aliceToken, map[string]string{"filename": "old.txt", "isPublic": "true"}, []byte("old"))
	mustUpload(t, b, aliceToken, map[string]string{"filename": "older.txt", "isPublic": "true"}, []byte("older"))

	resp := doJSON(t, http.MethodPost, b.url+"/admin/cleanup", adminToken, struct{}{})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["deletedFiles"])

	*b.clock = b.clock.Add(30 * 24 * time.Hour)

	resp = doJSON(t, http.MethodPost, b.url+"/admin/cleanup", adminToken, struct{}{})
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Expired files removed", body["message"])
	assert.Equal(t, float64(2), body["deletedFiles"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)

	files, err := b.store.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}
