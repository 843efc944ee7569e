package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"regexp"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"binroute-backend/internal/models"
)

// FCM topic names only allow [a-zA-Z0-9-_.~%]
var topicUnsafe = regexp.MustCompile(`[^a-zA-Z0-9\-_.~%]`)

// FCMService pushes plan notifications to the devices subscribed to a truck topic
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(ctx context.Context, credentialsFile string) (*FCMService, error) {
	return newFCMService(ctx, option.WithCredentialsFile(credentialsFile))
}

// NewFCMServiceFromBase64 creates a new FCM service instance from base64-encoded credentials
// This is useful for cloud deployments where you can't upload files easily
func NewFCMServiceFromBase64(ctx context.Context, credentialsBase64 string) (*FCMService, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCMService(ctx, option.WithCredentialsJSON(credentialsJSON))
}

func newFCMService(ctx context.Context, opt option.ClientOption) (*FCMService, error) {
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// NotifyPlan tells the truck's devices that its plan for the day changed
func (s *FCMService) NotifyPlan(ctx context.Context, plan *models.RoutePlan) error {
	response, err := s.client.Send(ctx, planMessage(plan))
	if err != nil {
		return fmt.Errorf("error sending FCM message: %w", err)
	}

	log.Printf("✅ FCM plan notification sent to %s: %s", TruckTopic(plan.TruckID), response)
	return nil
}

// TruckTopic is the FCM topic a truck's devices subscribe to
func TruckTopic(truckID string) string {
	return "truck-" + topicUnsafe.ReplaceAllString(truckID, "_")
}

func planMessage(plan *models.RoutePlan) *messaging.Message {
	body := "No bins are due today."
	if n := len(plan.Stops); n > 0 {
		body = fmt.Sprintf("You have %d bins to collect (%d kg, %.1f km).", n, plan.LoadKg, plan.DistanceKm)
	}

	return &messaging.Message{
		Topic: TruckTopic(plan.TruckID),
		Notification: &messaging.Notification{
			Title: "Route updated for " + plan.PlanDate,
			Body:  body,
		},
		Data: map[string]string{
			"type":         "route_plan_updated",
			"plan_id":      plan.ID,
			"service_area": plan.ServiceArea,
			"plan_date":    plan.PlanDate,
			"total_bins":   strconv.Itoa(len(plan.Stops)),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}
}
