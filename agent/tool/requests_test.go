package tool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderID(t *testing.T) {
	t.Parallel()

	req, err := ParseTrackOrder(" #1023 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1023), req.OrderID)

	_, err = ParseCancelOrder("")
	assert.ErrorIs(t, err, ErrMissingArgument)

	_, err = ParseCancelOrder("ten")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestParseAddItemSplitsOnFirstComma(t *testing.T) {
	t.Parallel()

	req, err := ParseAddItem("1023, Salt, Pepper Wings")
	require.NoError(t, err)
	assert.Equal(t, AddItemRequest{OrderID: 1023, ItemName: "Salt, Pepper Wings"}, req)

	_, err = ParseAddItem("1023")
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "item_name", argErr.Field)

	_, err = ParseAddItem("1023,  ")
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParseFeedbackKeepsCommasInComments(t *testing.T) {
	t.Parallel()

	req, err := ParseFeedback("3051, 4 ,Hot, fresh, fast")
	require.NoError(t, err)
	assert.Equal(t, FeedbackRequest{OrderID: 3051, Rating: 4, Comments: "Hot, fresh, fast"}, req)

	req, err = ParseFeedback("3051,5")
	require.NoError(t, err)
	assert.Empty(t, req.Comments)

	_, err = ParseFeedback("3051,0,bad")
	assert.ErrorIs(t, err, ErrRatingRange)

	_, err = ParseFeedback("3051,6")
	assert.ErrorIs(t, err, ErrRatingRange)

	_, err = ParseFeedback("3051,4.5")
	assert.ErrorIs(t, err, ErrInvalidNumber)

	_, err = ParseFeedback("3051")
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParseFreeTextArguments(t *testing.T) {
	t.Parallel()

	h, err := ParseOrderHistory("  Jane ")
	require.NoError(t, err)
	assert.Equal(t, "Jane", h.CustomerName)

	_, err = ParseRestaurantInfo("")
	assert.ErrorIs(t, err, ErrMissingArgument)

	m, err := ParseMenuRecommendation("pizza")
	require.NoError(t, err)
	assert.Equal(t, "pizza", m.Query)
}
