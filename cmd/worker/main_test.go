package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockledger/internal/app"
	_ "github.com/odyssey-erp/stockledger/internal/testing/guard"
)

func TestMainSkipsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	require.True(t, app.InTestMode())
	main()
}
