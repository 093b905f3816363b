package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchPage(rows string) string {
	return fmt.Sprintf(`<html><body><table>%s</table></body></html>`, rows)
}

func productRow(name, price, href string) string {
	return fmt.Sprintf(`<tr class="tr__product">
		<td class="td__name"><a href="%s">%s</a></td>
		<td class="td__price">%s</td>
	</tr>`, href, name, price)
}

func TestComparisonQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")

		rows := productRow("MSI GeForce RTX 3070 Ventus", "249,99 €", "/product/abc") +
			productRow("ASUS RTX 3070 Dual", "", "/product/def") + // no price, skipped
			productRow("", "199 €", "/product/ghi") + // no name, skipped
			productRow("Gigabyte RTX 3070 Gaming OC", "€259.00", "https://other.test/x")
		_, _ = w.Write([]byte(searchPage(rows)))
	}))
	defer server.Close()

	client, err := NewComparisonClient(ComparisonOptions{BaseURL: server.URL})
	require.NoError(t, err)

	candidates, err := client.Query(context.Background(), testIdentity(t))
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "RTX 3070", gotQuery)

	assert.Equal(t, "MSI GeForce RTX 3070 Ventus", candidates[0].Label)
	assert.InDelta(t, 249.99, candidates[0].Price, 0.001)
	assert.Equal(t, server.URL+"/product/abc", candidates[0].URL, "relative hrefs are resolved")

	assert.Equal(t, "https://other.test/x", candidates[1].URL, "absolute hrefs pass through")
	assert.InDelta(t, 259, candidates[1].Price, 0.001)
}

func TestComparisonQueryCapsCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var rows strings.Builder
		for i := 0; i < 15; i++ {
			rows.WriteString(productRow(fmt.Sprintf("RTX 3070 variant %d", i+1), "250 €", "/p"))
		}
		_, _ = w.Write([]byte(searchPage(rows.String())))
	}))
	defer server.Close()

	client, err := NewComparisonClient(ComparisonOptions{BaseURL: server.URL})
	require.NoError(t, err)

	candidates, err := client.Query(context.Background(), testIdentity(t))
	require.NoError(t, err)
	assert.Len(t, candidates, maxCandidates)
}

func TestComparisonQueryErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewComparisonClient(ComparisonOptions{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Query(context.Background(), testIdentity(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestComparisonQueryEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(searchPage("")))
	}))
	defer server.Close()

	client, err := NewComparisonClient(ComparisonOptions{BaseURL: server.URL})
	require.NoError(t, err)

	candidates, err := client.Query(context.Background(), testIdentity(t))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
