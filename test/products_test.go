package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2beens/fittracker/internal/products"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestProducts_PagingAndSearch() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	for i := 1; i <= 7; i++ {
		status, _ := doRequest(ctx, t, "POST", "/products", token, products.AddParams{
			Name: fmt.Sprintf("Protein Bar %02d", i),
		})
		require.Equal(t, http.StatusCreated, status)
	}

	// the catalog is public
	status, respBytes := doRequest(ctx, t, "GET", "/products?offset=0", "", nil)
	require.Equal(t, http.StatusOK, status)

	var page products.ListResult
	require.NoError(t, json.Unmarshal(respBytes, &page))
	require.Len(t, page.Products, 5)
	assert.GreaterOrEqual(t, page.TotalProducts, 7)
	require.NotNil(t, page.NewOffset)
	assert.Equal(t, 5, *page.NewOffset)

	// search mode has no cursor, regardless of result count
	status, respBytes = doRequest(ctx, t, "GET", "/products?q=protein", "", nil)
	require.Equal(t, http.StatusOK, status)

	var searched products.ListResult
	require.NoError(t, json.Unmarshal(respBytes, &searched))
	assert.GreaterOrEqual(t, len(searched.Products), 7)
	assert.Nil(t, searched.NewOffset)

	// no offset and no search: empty result
	status, respBytes = doRequest(ctx, t, "GET", "/products", "", nil)
	require.Equal(t, http.StatusOK, status)

	var unbounded products.ListResult
	require.NoError(t, json.Unmarshal(respBytes, &unbounded))
	assert.Empty(t, unbounded.Products)
	assert.Nil(t, unbounded.NewOffset)
}

func (s *IntegrationTestSuite) TestProducts_DeleteIsIdempotent() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSessionToken(ctx, testUserID)

	status, respBytes := doRequest(ctx, t, "POST", "/products", token, products.AddParams{
		Name: "Shaker Bottle",
	})
	require.Equal(t, http.StatusCreated, status)

	var product products.Product
	require.NoError(t, json.Unmarshal(respBytes, &product))

	for i := 0; i < 2; i++ {
		status, respBytes = doRequest(ctx, t, "DELETE", fmt.Sprintf("/products/%d", product.ID), token, nil)
		require.Equal(t, http.StatusOK, status)

		var deleteResp products.DeleteProductResponse
		require.NoError(t, json.Unmarshal(respBytes, &deleteResp))
		assert.Equal(t, product.ID, deleteResp.DeletedID)
	}
}

func (s *IntegrationTestSuite) TestVersion() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()

	status, respBytes := doRequest(ctx, t, "GET", "/version", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "test-version-info", string(respBytes))
}
