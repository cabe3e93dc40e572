package azure_batch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// sharedKey signs Batch service requests with the account key.
// ref: https://learn.microsoft.com/en-us/rest/api/batchservice/authenticate-requests-to-the-azure-batch-service
type sharedKey struct {
	account string
	key     []byte
}

func newSharedKey(account, key string) (*sharedKey, error) {
	k, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("decoding batch account key: %w", err)
	}
	return &sharedKey{account: account, key: k}, nil
}

func (s *sharedKey) authorize(req *http.Request) {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(s.stringToSign(req)))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	req.Header.Set("Authorization", "SharedKey "+s.account+":"+sig)
}

func (s *sharedKey) stringToSign(req *http.Request) string {
	length := ""
	if req.ContentLength > 0 {
		length = strconv.FormatInt(req.ContentLength, 10)
	}

	h := req.Header
	parts := []string{
		req.Method,
		h.Get("Content-Encoding"),
		h.Get("Content-Language"),
		length,
		h.Get("Content-MD5"),
		h.Get("Content-Type"),
		h.Get("Date"),
		h.Get("If-Modified-Since"),
		h.Get("If-Match"),
		h.Get("If-None-Match"),
		h.Get("If-Unmodified-Since"),
		h.Get("Range"),
	}
	return strings.Join(parts, "\n") + "\n" + canonicalHeaders(h) + s.canonicalResource(req)
}

func canonicalHeaders(h http.Header) string {
	var names []string
	for k := range h {
		if strings.HasPrefix(strings.ToLower(k), "ocp-") {
			names = append(names, strings.ToLower(k))
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		b.WriteString(k + ":" + strings.TrimSpace(h.Get(k)) + "\n")
	}
	return b.String()
}

func (s *sharedKey) canonicalResource(req *http.Request) string {
	p := req.URL.EscapedPath()
	if p == "" {
		p = "/"
	}
	res := "/" + s.account + p

	q := req.URL.Query()
	var names []string
	for k := range q {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		res += "\n" + strings.ToLower(k) + ":" + strings.Join(vals, ",")
	}
	return res
}
