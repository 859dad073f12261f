package ports

import "net/http"

// HTTPClient is the transport the gateway adapters send through.
// *http.Client satisfies it; tests inject fakes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
