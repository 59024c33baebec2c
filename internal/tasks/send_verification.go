package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/authkit/internal/entities"
	"github.com/mrlokans/authkit/internal/mailer"
)

// SendVerificationTask delivers an email-verification link to a user.
type SendVerificationTask struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (t SendVerificationTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_verification",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			// Task payloads carry verification tokens; keep them only for
			// failed deliveries that may need investigation.
			Data: &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SendVerificationProcessor creates a processor that renders and sends the
// verification email. baseURL is the public base URL of this service.
func SendVerificationProcessor(m mailer.Mailer, baseURL string) backlite.QueueProcessor[SendVerificationTask] {
	return func(ctx context.Context, task SendVerificationTask) error {
		link := fmt.Sprintf("%s/auth/verify/%s", baseURL, task.Token)
		body := fmt.Sprintf(
			"Hi %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nThe link expires in 24 hours. If you did not sign up, ignore this message.\n",
			task.Name, link)

		if err := m.Send(task.Email, "Verify your email address", body); err != nil {
			return fmt.Errorf("send verification to %s: %w", task.Email, err)
		}

		log.Printf("[TASK] Sent verification email to %s", task.Email)
		return nil
	}
}

func NewSendVerificationQueue(m mailer.Mailer, baseURL string) backlite.Queue {
	return backlite.NewQueue(SendVerificationProcessor(m, baseURL))
}

// Dispatcher enqueues verification emails through the task queue. It
// implements auth.VerificationDispatcher.
type Dispatcher struct {
	client *Client
}

// NewDispatcher creates a dispatcher backed by the given task client.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// DispatchVerification enqueues delivery of the verification token.
func (d *Dispatcher) DispatchVerification(user *entities.User, token string) error {
	_, err := d.client.Add(SendVerificationTask{
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	}).Save()
	return err
}
