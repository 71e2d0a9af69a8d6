package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
)

func TestDirectory_LoadCards(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())

	fixture := `[
		{
			"accountingId": "0194f3a2-7c1e-7d3a-9b2f-5a6e1c0d4b21",
			"fullName": "Анализатор ABC 2000",
			"shortName": "ABC 2000",
			"serialNumber": "SN 0042",
			"client": {"id": "0194f3a2-7c1e-7d3a-9b2f-5a6e1c0d4b22", "name": "ООО Ромашка", "inn": "7701234567"},
			"department": {"id": "0194f3a2-7c1e-7d3a-9b2f-5a6e1c0d4b23", "name": "Лаборатория"},
			"contact": {"surname": "Иванов", "name": "Иван"}
		},
		{
			"accountingId": "0194f3a2-7c1e-7d3a-9b2f-5a6e1c0d4b24",
			"fullName": "Центрифуга",
			"serialNumber": "C-7"
		}
	]`

	n, err := repos.Directory.LoadCards(ctx, strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	card, err := repos.Directory.GetCard(ctx, id.MustParse("0194f3a2-7c1e-7d3a-9b2f-5a6e1c0d4b21"))
	require.NoError(t, err)
	assert.Equal(t, "SN 0042", card.SerialNumber)
	require.NotNil(t, card.Client)
	assert.Equal(t, "7701234567", *card.Client.INN)
	require.NotNil(t, card.Department)
	assert.Equal(t, "Иванов И.", card.Contact.ShortName())

	bare, err := repos.Directory.GetCard(ctx, id.MustParse("0194f3a2-7c1e-7d3a-9b2f-5a6e1c0d4b24"))
	require.NoError(t, err)
	assert.Nil(t, bare.Department)
	assert.Equal(t, "Центрифуга", bare.DisplayShortName())
}

func TestDirectory_LoadCardsRejectsMissingID(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())

	fixture := `[
		{"accountingId": "0194f3a2-7c1e-7d3a-9b2f-5a6e1c0d4b21", "fullName": "A"},
		{"fullName": "B"}
	]`

	_, err := repos.Directory.LoadCards(ctx, strings.NewReader(fixture))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = repos.Directory.GetCard(ctx, id.MustParse("0194f3a2-7c1e-7d3a-9b2f-5a6e1c0d4b21"))
	assert.True(t, apperror.IsNotFound(err), "a rejected fixture stores nothing")
}

func TestDirectory_LoadCardsMalformed(t *testing.T) {
	_, err := NewRepositories(NewStore()).Directory.LoadCards(context.Background(), strings.NewReader(`{"not":"an array"}`))
	assert.Error(t, err)
}
