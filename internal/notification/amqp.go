package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Arjit20/Cine-Book/internal/domain/booking"
	"github.com/Arjit20/Cine-Book/internal/pkg/logger"
)

// BookingConfirmedEvent は通知キューに発行されるメッセージ本体
// 下流の配送サービス（メール/SMS）がこのペイロードを消費する
type BookingConfirmedEvent struct {
	TicketID    string    `json:"ticket_id"`
	ShowID      string    `json:"show_id"`
	Seats       []string  `json:"seats"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	TotalAmount int       `json:"total_amount"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// AMQPNotifier は RabbitMQ キューへ予約確定イベントを発行する Notifier
// 接続は発行ごとに張る。失敗はエラーとして返すが、呼び出し側はログに
// 留めて処理を継続することが期待される
type AMQPNotifier struct {
	url   string
	queue string
}

// NewAMQPNotifier は新しい AMQPNotifier を作成する
func NewAMQPNotifier(url, queue string) *AMQPNotifier {
	return &AMQPNotifier{url: url, queue: queue}
}

// BookingConfirmed は予約確定イベントをキューに発行する
// メッセージは永続化指定で発行される
func (n *AMQPNotifier) BookingConfirmed(ctx context.Context, b *booking.Booking) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("RabbitMQ接続に失敗: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("チャンネル作成に失敗: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("キュー宣言に失敗: %w", err)
	}

	body, err := json.Marshal(BookingConfirmedEvent{
		TicketID:    b.TicketID,
		ShowID:      b.ShowID,
		Seats:       b.Seats,
		Email:       b.Email,
		Phone:       b.Phone,
		TotalAmount: b.TotalAmount,
		ConfirmedAt: b.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("イベントのエンコードに失敗: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}

	logger.Debug("予約確定通知を発行",
		zap.String("ticket_id", b.TicketID),
		zap.String("queue", n.queue),
	)
	return nil
}

var _ Notifier = (*AMQPNotifier)(nil)
