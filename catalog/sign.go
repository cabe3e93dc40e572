package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/go-resty/resty/v2"
)

const (
	blobHostSuffix        = ".blob.core.windows.net"
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
	// tokens are renewed this long before they expire
	tokenExpiryMargin = 5 * time.Minute
)

type sasToken struct {
	Expiry time.Time `json:"msft:expiry"`
	Token  string    `json:"token"`
}

// Signer grants temporary read access to Planetary Computer blob assets by
// appending a SAS token to their hrefs. Tokens are cached per storage
// account and container until shortly before they expire.
type Signer struct {
	http *doer
	log  *logger.Logger
	now  func() time.Time

	mtx    sync.Mutex
	tokens map[string]sasToken
}

// NewSigner returns a new Signer using the SAS token API at conf.SignURL.
func NewSigner(conf config.Catalog, log *logger.Logger) *Signer {
	rest := resty.New().
		SetBaseURL(strings.TrimSuffix(conf.SignURL, "/")).
		SetTimeout(conf.Timeout.AsDuration())

	if conf.SubscriptionKey != "" {
		rest.SetHeader(subscriptionKeyHeader, conf.SubscriptionKey)
	}

	return &Signer{
		http:   newDoer(rest, conf.MaxRetries, log),
		log:    log,
		now:    time.Now,
		tokens: map[string]sasToken{},
	}
}

// Sign returns href with a read token appended. Hrefs outside Azure blob
// storage, and hrefs which already carry a signature, are returned unchanged.
func (s *Signer) Sign(ctx context.Context, href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parsing href %q: %w", href, err)
	}

	if !strings.HasSuffix(u.Host, blobHostSuffix) || u.Query().Get("sig") != "" {
		return href, nil
	}

	account := strings.TrimSuffix(u.Host, blobHostSuffix)
	container, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if account == "" || container == "" {
		return "", fmt.Errorf("href %q has no storage account or container", href)
	}

	tok, err := s.token(ctx, account, container)
	if err != nil {
		return "", err
	}

	if u.RawQuery == "" {
		u.RawQuery = tok
	} else {
		u.RawQuery += "&" + tok
	}
	return u.String(), nil
}

func (s *Signer) token(ctx context.Context, account, container string) (string, error) {
	key := account + "/" + container

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if t, ok := s.tokens[key]; ok && s.now().Add(tokenExpiryMargin).Before(t.Expiry) {
		return t.Token, nil
	}

	var t sasToken
	err := s.http.do(ctx, http.MethodGet, "/token/"+url.PathEscape(account)+"/"+url.PathEscape(container), nil, &t)
	if err != nil {
		return "", fmt.Errorf("getting SAS token for %s: %w", key, err)
	}
	if t.Token == "" {
		return "", fmt.Errorf("getting SAS token for %s: empty token", key)
	}

	s.log.Debug("fetched SAS token", "account", account, "container", container, "expiry", t.Expiry)
	s.tokens[key] = t
	return t.Token, nil
}
