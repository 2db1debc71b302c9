package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
)

const (
	ToolTrackOrder         = "track_order"
	ToolCancelOrder        = "cancel_order"
	ToolUpdateOrder        = "update_order_with_recommendation"
	ToolMenuRecommendation = "get_menu_recommendation"
	ToolOrderHistory       = "get_order_history"
	ToolSubmitFeedback     = "submit_feedback"
	ToolRestaurantInfo     = "get_restaurant_info"

	// InputParam is the single string argument every tool takes.
	InputParam = "input"

	unexpectedReply  = "❌ An unexpected error occurred. Please try again in a moment."
	ratingRangeReply = "❌ Rating must be between 1 and 5."
)

// Spec declares a tool to the model: its name, what it does, and how its
// single string argument is encoded.
type Spec struct {
	Name        string
	Description string
	Encoding    string
	Arity       int

	run func(ctx context.Context, s *Service, input string) string
}

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

type Registry struct {
	service *Service
	order   []string
	specs   map[string]Spec
}

var _ contractx.ToolGateway = (*Registry)(nil)

func NewRegistry(service *Service) *Registry {
	specs := catalog()
	r := &Registry{
		service: service,
		order:   make([]string, 0, len(specs)),
		specs:   make(map[string]Spec, len(specs)),
	}
	for _, spec := range specs {
		r.order = append(r.order, spec.Name)
		r.specs[spec.Name] = spec
	}
	return r
}

func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}

func (r *Registry) Lookup(name string) (Spec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

func (r *Registry) Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		spec := r.specs[name]
		infos = append(infos, &schema.ToolInfo{
			Name: spec.Name,
			Desc: spec.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				InputParam: {
					Type:     schema.String,
					Desc:     fmt.Sprintf("Single string argument encoded as '%s'.", spec.Encoding),
					Required: true,
				},
			}),
		})
	}
	return infos
}

// Invoke runs a tool by name on its raw text argument.
func (r *Registry) Invoke(ctx context.Context, name, input string) (reply string, err error) {
	spec, ok := r.specs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("component", "tool").
				Str("tool", name).
				Interface("panic", rec).
				Msg("tool panicked")
			reply, err = unexpectedReply, nil
		}
	}()
	return spec.run(ctx, r.service, input), nil
}

func (r *Registry) Executor() Executor {
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		reply, err := r.Invoke(ctx, tool, inputArg(args))
		if errors.Is(err, contractx.ErrUnknownTool) {
			return contractx.ToolResult{
				Tool:  tool,
				Error: fmt.Sprintf("tool=%s is not registered", tool),
			}, nil
		}
		if err != nil {
			return contractx.ToolResult{}, err
		}
		return contractx.ToolResult{Tool: tool, Result: reply}, nil
	}
}

func (r *Registry) Execute(ctx context.Context, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	exec := r.Executor()
	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		res, err := exec(ctx, req.Tool, req.Args)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// inputArg reads the "input" argument. Models sometimes send ids as numbers.
func inputArg(args map[string]any) string {
	raw, ok := args[InputParam]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func catalog() []Spec {
	return []Spec{
		{
			Name:        ToolTrackOrder,
			Description: "Check the status of a specific order. Also suggests upsell items that pair with the order.",
			Encoding:    "order_id",
			Arity:       1,
			run: func(ctx context.Context, s *Service, input string) string {
				req, err := ParseTrackOrder(input)
				if err != nil {
					return orderIDReply(err, "")
				}
				return s.TrackOrder(ctx, req)
			},
		},
		{
			Name:        ToolCancelOrder,
			Description: "Cancel an entire order that has not been delivered yet.",
			Encoding:    "order_id",
			Arity:       1,
			run: func(ctx context.Context, s *Service, input string) string {
				req, err := ParseCancelOrder(input)
				if err != nil {
					return orderIDReply(err, "⚠️ I need an order ID to cancel an order.")
				}
				return s.CancelOrder(ctx, req)
			},
		},
		{
			Name:        ToolUpdateOrder,
			Description: "Add a menu item to an existing order and update its total. For example: '1023,Diet Coke'.",
			Encoding:    "order_id,item_name",
			Arity:       2,
			run: func(ctx context.Context, s *Service, input string) string {
				req, err := ParseAddItem(input)
				if err != nil {
					var argErr *ArgumentError
					if errors.As(err, &argErr) && argErr.Field == "item_name" {
						return "⚠️ Please provide the order ID and the item name separated by a comma, for example '1023,Diet Coke'."
					}
					return orderIDReply(err, "⚠️ I need an order ID and an item name, for example '1023,Diet Coke'.")
				}
				return s.AddItem(ctx, req)
			},
		},
		{
			Name:        ToolMenuRecommendation,
			Description: "Look up a dish on the menu by name or ingredient and return its price, description and pairings.",
			Encoding:    "food_item",
			Arity:       1,
			run: func(ctx context.Context, s *Service, input string) string {
				req, err := ParseMenuRecommendation(input)
				if err != nil {
					return "⚠️ Tell me which dish or ingredient you are interested in."
				}
				return s.MenuRecommendation(ctx, req)
			},
		},
		{
			Name:        ToolOrderHistory,
			Description: "Get the five most recent orders for a customer. The input is the customer's name or part of it.",
			Encoding:    "customer_name",
			Arity:       1,
			run: func(ctx context.Context, s *Service, input string) string {
				req, err := ParseOrderHistory(input)
				if err != nil {
					return "⚠️ I need a customer name to look up the order history."
				}
				return s.OrderHistory(ctx, req)
			},
		},
		{
			Name:        ToolSubmitFeedback,
			Description: "Record customer feedback for an order with a rating from 1 to 5 and optional comments. For example: '1023,5,Great pizza'.",
			Encoding:    "order_id,rating,comments",
			Arity:       3,
			run: func(ctx context.Context, s *Service, input string) string {
				req, err := ParseFeedback(input)
				if err != nil {
					return feedbackReply(err)
				}
				return s.SubmitFeedback(ctx, req)
			},
		},
		{
			Name:        ToolRestaurantInfo,
			Description: "Show how many orders each restaurant matching the given name has received.",
			Encoding:    "restaurant_name",
			Arity:       1,
			run: func(ctx context.Context, s *Service, input string) string {
				req, err := ParseRestaurantInfo(input)
				if err != nil {
					return "⚠️ I need a restaurant name to look up."
				}
				return s.RestaurantInfo(ctx, req)
			},
		},
	}
}

func orderIDReply(err error, missing string) string {
	if errors.Is(err, ErrMissingArgument) && missing != "" {
		return missing
	}
	return "❌ Please provide a valid order ID number."
}

func feedbackReply(err error) string {
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		return unexpectedReply
	}
	switch {
	case argErr.Field == "order_id":
		return orderIDReply(err, "⚠️ Please provide feedback as 'order_id,rating,comments', for example '1023,5,Great food'.")
	case errors.Is(err, ErrRatingRange):
		return ratingRangeReply
	case errors.Is(err, ErrInvalidNumber):
		return "❌ Please provide the rating as a whole number from 1 to 5."
	default:
		return "⚠️ Please provide feedback as 'order_id,rating,comments', for example '1023,5,Great food'."
	}
}
