package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestRowsFromValues(t *testing.T) {
	values := [][]interface{}{
		{"Nome", "CPF", "Telefone", ""},
		{"Ana", "111", "11900000001", "ignored"},
		{"Bia"},
		{"", " ", ""},
		{"Caio", 222.0, "11900000003"},
	}

	rows := RowsFromValues(values)
	require.Len(t, rows, 3)
	assert.Equal(t, map[string]string{"Nome": "Ana", "CPF": "111", "Telefone": "11900000001"}, rows[0])
	assert.Equal(t, "Bia", rows[1]["Nome"])
	assert.Equal(t, "", rows[1]["Telefone"])
	assert.Equal(t, "222", rows[2]["CPF"])

	assert.Nil(t, RowsFromValues([][]interface{}{{"header only"}}))
}

func TestClient_Rows(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Respostas!A1:C3","majorDimension":"ROWS","values":[["Nome","Telefone"],["Ana","(11) 90000-0001"]]}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), "", "sheet-123",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	rows, err := c.Rows(context.Background(), "Respostas!A:Z")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0]["Nome"])
	assert.True(t, strings.Contains(gotPath, "sheet-123"), gotPath)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), "", "")
	assert.Error(t, err)

	_, err = New(context.Background(), "/does/not/exist.json", "sheet")
	assert.Error(t, err)
}
