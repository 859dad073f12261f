package ixopay

import (
	"testing"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrub_RequestDocument(t *testing.T) {
	b := newTestBuilder()
	body, err := b.buildPurchase(b.newRequest(ports.OperationPurchase, eur("1"), testCard(), ports.TransactionOptions{}))
	require.NoError(t, err)

	scrubbed := Scrub(string(body))

	assert.NotContains(t, scrubbed, "4111111111111111")
	assert.NotContains(t, scrubbed, "<cvv>123</cvv>")
	assert.NotContains(t, scrubbed, "5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8")
	assert.Contains(t, scrubbed, "<pan>[FILTERED]</pan>")
	assert.Contains(t, scrubbed, "<cvv>[FILTERED]</cvv>")
	assert.Contains(t, scrubbed, "<password>[FILTERED]</password>")
	assert.Contains(t, scrubbed, "<cardHolder>Longbob Longsen</cardHolder>")
}

func TestScrub_AuthorizationHeader(t *testing.T) {
	transcript := "POST /transaction\nAuthorization: Gateway api-key:c2lnbmF0dXJl==\nDate: " + fixedTimestamp

	scrubbed := Scrub(transcript)

	assert.Contains(t, scrubbed, "Authorization: Gateway api-key:[FILTERED]")
	assert.NotContains(t, scrubbed, "c2lnbmF0dXJl")
	assert.Contains(t, scrubbed, "Date: "+fixedTimestamp)
}

func TestScrub_LeavesOtherTextAlone(t *testing.T) {
	in := "<result><success>true</success></result>"
	assert.Equal(t, in, Scrub(in))
}
