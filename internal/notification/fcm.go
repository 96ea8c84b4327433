package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	types "salesQuestAPI/internal/types/notification"
)

// FCMService pushes group notifications through Firebase Cloud
// Messaging. Each registered chat group subscribes to the topic named
// after its group key.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService initializes the messaging client. It first attempts to
// use credentials from the FCM_SERVICE_ACCOUNT_JSON environment variable
// (Base64 encoded) and falls back to a local service account key file.
func NewFCMService(localFilePath string) (*FCMService, error) {
	var opt option.ClientOption

	encodedCreds := os.Getenv("FCM_SERVICE_ACCOUNT_JSON")
	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %v", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("FCM Service: Initializing from FCM_SERVICE_ACCOUNT_JSON environment variable.")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and FCM_SERVICE_ACCOUNT_JSON environment variable is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Printf("FCM Service: Initializing from local file: %s.", localFilePath)
	}

	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %v", err)
	}

	return &FCMService{client: client}, nil
}

// Send publishes the payload to the group's topic.
func (s *FCMService) Send(ctx context.Context, groupKey string, payload *types.Payload) error {
	data := map[string]string{
		"submitter": payload.SubmitterName,
	}
	if payload.Activity != nil {
		data["activity_id"] = payload.Activity.ID.String()
		data["activity_type"] = string(payload.Activity.Type)
		data["points"] = strconv.Itoa(payload.Activity.Points)
	}
	if payload.AchievementID != "" {
		data["achievement_id"] = payload.AchievementID
	}
	if payload.SubmitterDailyRank > 0 {
		data["daily_rank"] = strconv.Itoa(payload.SubmitterDailyRank)
	}
	if payload.Team != nil {
		data["team_points"] = strconv.Itoa(payload.Team.TotalPoints)
		data["team_activities"] = strconv.Itoa(payload.Team.TotalActivities)
	}

	message := &messaging.Message{
		Topic: groupKey,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		return fmt.Errorf("fcm send to topic %s failed: %w", groupKey, err)
	}
	return nil
}
