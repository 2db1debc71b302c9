package tool

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidNumber   = errors.New("not a whole number")
	ErrRatingRange     = errors.New("rating must be between 1 and 5")
)

// ArgumentError names the field of a tool argument that failed to decode.
type ArgumentError struct {
	Field string
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

func argErr(field string, err error) error {
	return &ArgumentError{Field: field, Err: err}
}

type TrackOrderRequest struct {
	OrderID int64
}

type CancelOrderRequest struct {
	OrderID int64
}

type AddItemRequest struct {
	OrderID  int64
	ItemName string
}

type MenuRecommendationRequest struct {
	Query string
}

type OrderHistoryRequest struct {
	CustomerName string
}

type FeedbackRequest struct {
	OrderID  int64
	Rating   int
	Comments string
}

func (r FeedbackRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return argErr("rating", ErrRatingRange)
	}
	return nil
}

type RestaurantInfoRequest struct {
	Name string
}

func ParseTrackOrder(input string) (TrackOrderRequest, error) {
	id, err := parseOrderID(input)
	if err != nil {
		return TrackOrderRequest{}, err
	}
	return TrackOrderRequest{OrderID: id}, nil
}

func ParseCancelOrder(input string) (CancelOrderRequest, error) {
	id, err := parseOrderID(input)
	if err != nil {
		return CancelOrderRequest{}, err
	}
	return CancelOrderRequest{OrderID: id}, nil
}

// ParseAddItem decodes "order_id,item_name". Only the first comma splits.
func ParseAddItem(input string) (AddItemRequest, error) {
	parts := strings.SplitN(input, ",", 2)
	if len(parts) < 2 {
		if strings.TrimSpace(input) == "" {
			return AddItemRequest{}, argErr("order_id", ErrMissingArgument)
		}
		return AddItemRequest{}, argErr("item_name", ErrMissingArgument)
	}

	id, err := parseOrderID(parts[0])
	if err != nil {
		return AddItemRequest{}, err
	}
	item := strings.TrimSpace(parts[1])
	if item == "" {
		return AddItemRequest{}, argErr("item_name", ErrMissingArgument)
	}
	return AddItemRequest{OrderID: id, ItemName: item}, nil
}

func ParseMenuRecommendation(input string) (MenuRecommendationRequest, error) {
	q := strings.TrimSpace(input)
	if q == "" {
		return MenuRecommendationRequest{}, argErr("query", ErrMissingArgument)
	}
	return MenuRecommendationRequest{Query: q}, nil
}

func ParseOrderHistory(input string) (OrderHistoryRequest, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		return OrderHistoryRequest{}, argErr("customer_name", ErrMissingArgument)
	}
	return OrderHistoryRequest{CustomerName: name}, nil
}

// ParseFeedback decodes "order_id,rating[,comments]". Only the first two
// commas split, so comments may contain commas.
func ParseFeedback(input string) (FeedbackRequest, error) {
	parts := strings.SplitN(input, ",", 3)
	if len(parts) < 2 {
		if strings.TrimSpace(input) == "" {
			return FeedbackRequest{}, argErr("order_id", ErrMissingArgument)
		}
		return FeedbackRequest{}, argErr("rating", ErrMissingArgument)
	}

	id, err := parseOrderID(parts[0])
	if err != nil {
		return FeedbackRequest{}, err
	}

	rawRating := strings.TrimSpace(parts[1])
	if rawRating == "" {
		return FeedbackRequest{}, argErr("rating", ErrMissingArgument)
	}
	rating, err := strconv.Atoi(rawRating)
	if err != nil {
		return FeedbackRequest{}, argErr("rating", ErrInvalidNumber)
	}

	req := FeedbackRequest{OrderID: id, Rating: rating}
	if len(parts) == 3 {
		req.Comments = strings.TrimSpace(parts[2])
	}
	if err := req.Validate(); err != nil {
		return FeedbackRequest{}, err
	}
	return req, nil
}

func ParseRestaurantInfo(input string) (RestaurantInfoRequest, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		return RestaurantInfoRequest{}, argErr("restaurant_name", ErrMissingArgument)
	}
	return RestaurantInfoRequest{Name: name}, nil
}

// parseOrderID accepts "1023", " 1023 " and "#1023".
func parseOrderID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
	if s == "" {
		return 0, argErr("order_id", ErrMissingArgument)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, argErr("order_id", ErrInvalidNumber)
	}
	return id, nil
}
