package notify

import (
	"fmt"

	"go-mediaflow/pkg/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
)

const (
	senderName        = "The Photo Album"
	confirmationTitle = "New Image Uploaded"
	rejectionTitle    = "File Rejection Notification"
)

// Mailer dispatches the two user-facing notifications. Implementations
// must be safe for concurrent use.
type Mailer interface {
	SendConfirmation(bucket, key string) error
	SendRejection(notice models.RejectionNotice) error
}

// SESMailer sends through Amazon SES.
type SESMailer struct {
	client *ses.SES
	from   string
	to     []string
}

func NewSESMailer(region, from string, to []string) (*SESMailer, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("SES session error: %v", err)
	}
	return &SESMailer{
		client: ses.New(sess),
		from:   from,
		to:     to,
	}, nil
}

func (m *SESMailer) SendConfirmation(bucket, key string) error {
	message := fmt.Sprintf("We received your Image. Its URL is s3://%s/%s", bucket, key)
	return m.send(confirmationTitle, confirmationBody(senderName, m.from, message))
}

func (m *SESMailer) SendRejection(notice models.RejectionNotice) error {
	return m.send(rejectionTitle, rejectionBody(notice.FileKey, notice.Reason))
}

func (m *SESMailer) send(subject, htmlBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(m.from),
		Destination: &ses.Destination{
			ToAddresses: aws.StringSlice(m.to),
		},
		Message: &ses.Message{
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(htmlBody),
				},
			},
		},
	}
	if _, err := m.client.SendEmail(input); err != nil {
		return models.WrapError(models.KindDownstreamUnavailable, err, "sending %q email", subject)
	}
	return nil
}

func confirmationBody(name, email, message string) string {
	return fmt.Sprintf(`
    <html>
      <body>
        <h2>Sent from: </h2>
        <ul>
          <li style="font-size:18px">👤 <b>%s</b></li>
          <li style="font-size:18px">✉️ <b>%s</b></li>
        </ul>
        <p style="font-size:18px">%s</p>
      </body>
    </html>`, name, email, message)
}

func rejectionBody(fileKey, reason string) string {
	return fmt.Sprintf(`
    <html>
      <body>
        <h2>File Rejection Notice</h2>
        <p style="font-size:18px">The file <b>%s</b> was rejected for the following reason:</p>
        <p style="font-size:18px; color: red;"><b>%s</b></p>
      </body>
    </html>`, fileKey, reason)
}
