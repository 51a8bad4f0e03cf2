// Package kalshi implementa los puertos de mercado y ejecución contra
// la API de trading de Kalshi (trade-api/v2), con autenticación por
// token, rate limiting y retries con backoff.
package kalshi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultProdBase = "https://api.kalshi.co/trade-api/v2"
	defaultDemoBase = "https://demo-api.kalshi.co/trade-api/v2"

	// La API tolera ~5 req/s por sesión; margen por debajo de eso.
	requestsPerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	// El token de sesión dura 24h; se renueva un poco antes.
	tokenLifetime = 24*time.Hour - 5*time.Minute
)

// Credentials son las credenciales de login de la cuenta.
type Credentials struct {
	Email    string
	Password string
}

// Client es el HTTP client de Kalshi con login, rate limiting y retries.
type Client struct {
	http    *http.Client
	base    string
	creds   Credentials
	limiter *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient crea un Client contra el base URL dado.
// Con baseURL vacío usa el entorno demo; producción se pide explícita.
func NewClient(baseURL string, creds Credentials) *Client {
	if baseURL == "" {
		baseURL = defaultDemoBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    baseURL,
		creds:   creds,
		limiter: rate.NewLimiter(requestsPerSec, 5),
	}
}

// ProdBaseURL es el base URL del entorno de producción.
func ProdBaseURL() string { return defaultProdBase }

// Login autentica contra la API y guarda el token de sesión.
func (c *Client) Login(ctx context.Context) error {
	payload := loginRequest{Email: c.creds.Email, Password: c.creds.Password}

	var resp loginResponse
	if err := c.post(ctx, "/login", payload, &resp, false); err != nil {
		return fmt.Errorf("kalshi.Login: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("kalshi.Login: response did not contain token")
	}

	c.mu.Lock()
	c.token = resp.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	c.mu.Unlock()

	slog.Info("kalshi login successful", "email", c.creds.Email)
	return nil
}

// ensureToken renueva el token si expiró. Las llamadas autenticadas
// lo invocan antes de cada request.
func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	valid := c.token != "" && time.Now().Before(c.tokenExpiry)
	c.mu.Unlock()

	if valid {
		return nil
	}
	return c.Login(ctx)
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// get hace un GET autenticado con rate limiting y retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.bearer())
		return c.http.Do(req)
	}, out)
}

// post hace un POST JSON con rate limiting y retries.
func (c *Client) post(ctx context.Context, path string, body, out any, authenticated bool) error {
	if authenticated {
		if err := c.ensureToken(ctx); err != nil {
			return err
		}
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if authenticated {
			req.Header.Set("Authorization", "Bearer "+c.bearer())
		}
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
