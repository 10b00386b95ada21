package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/ports"
	notifdomain "github.com/hoyacom/apiman/domain/notifications"
)

// NotificationRepository implements ports.NotificationRepository on the
// single-table layout. Notifications live under their recipient's partition,
// so ownership checks are free: addressing an item requires the recipient.
type NotificationRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.NotificationRepository {
	return &NotificationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// notificationItem is the DynamoDB item structure for a notification.
type notificationItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EntityType    string `dynamodbav:"EntityType"`
	ID            string `dynamodbav:"ID"`
	Category      string `dynamodbav:"Category"`
	Reason        string `dynamodbav:"Reason"`
	ReasonMessage string `dynamodbav:"ReasonMessage"`
	Status        string `dynamodbav:"Status"`
	Recipient     string `dynamodbav:"Recipient"`
	Source        string `dynamodbav:"Source,omitempty"`
	Payload       string `dynamodbav:"Payload,omitempty"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
	ModifiedAt    string `dynamodbav:"ModifiedAt"`
}

func notificationPK(recipient string) string {
	return fmt.Sprintf("RECIPIENT#%s", recipient)
}

func notificationSK(id string) string {
	return fmt.Sprintf("NOTIFICATION#%s", id)
}

// Create stores a new notification record.
func (r *NotificationRepository) Create(ctx context.Context, n notifdomain.Notification) error {
	item := notificationItem{
		PK:            notificationPK(n.Recipient),
		SK:            notificationSK(n.ID),
		EntityType:    "NOTIFICATION",
		ID:            n.ID,
		Category:      string(n.Category),
		Reason:        n.Reason,
		ReasonMessage: n.ReasonMessage,
		Status:        string(n.Status),
		Recipient:     n.Recipient,
		Source:        n.Source,
		Payload:       string(n.Payload),
		CreatedAt:     n.CreatedAt.Format(time.RFC3339Nano),
		ModifiedAt:    n.ModifiedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	r.logger.Debug("Notification stored",
		zap.String("notificationID", n.ID),
		zap.String("recipient", n.Recipient),
	)

	return nil
}

// ListUnreadByRecipient returns a page of OPEN notifications, newest first.
// Notification partitions stay small (OPEN items only accumulate until the
// user reads them), so the page window is applied after the query.
func (r *NotificationRepository) ListUnreadByRecipient(ctx context.Context, recipient string, limit, offset int) ([]notifdomain.Notification, int, error) {
	all, err := r.queryUnread(ctx, recipient)
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []notifdomain.Notification{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return all[offset:end], total, nil
}

// CountUnreadByRecipient returns the number of OPEN notifications.
func (r *NotificationRepository) CountUnreadByRecipient(ctx context.Context, recipient string) (int, error) {
	all, err := r.queryUnread(ctx, recipient)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// queryUnread fetches every OPEN notification in the recipient's partition.
func (r *NotificationRepository) queryUnread(ctx context.Context, recipient string) ([]notifdomain.Notification, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(notificationPK(recipient))).
		And(expression.Key("SK").BeginsWith("NOTIFICATION#"))
	filter := expression.Name("Status").Equal(expression.Value(string(notifdomain.StatusOpen)))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(filter).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	var results []notifdomain.Notification

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query notifications: %w", err)
		}

		for _, raw := range page.Items {
			var item notificationItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable notification item", zap.Error(err))
				continue
			}
			results = append(results, item.toDomain())
		}
	}

	return results, nil
}

// MarkRead sets the status of the recipient's notifications. The key carries
// the recipient, so IDs owned by someone else simply fail the existence
// condition and are skipped.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipient string, ids []string, status notifdomain.Status) error {
	now := time.Now().Format(time.RFC3339Nano)

	for _, id := range ids {
		update := expression.Set(expression.Name("Status"), expression.Value(string(status))).
			Set(expression.Name("ModifiedAt"), expression.Value(now))
		cond := expression.AttributeExists(expression.Name("PK"))

		expr, err := expression.NewBuilder().
			WithUpdate(update).
			WithCondition(cond).
			Build()
		if err != nil {
			return fmt.Errorf("failed to build update expression: %w", err)
		}

		input := &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: notificationPK(recipient)},
				"SK": &types.AttributeValueMemberS{Value: notificationSK(id)},
			},
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}

		if _, err := r.client.UpdateItem(ctx, input); err != nil {
			var condFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condFailed) {
				r.logger.Debug("Skipping notification not owned by recipient",
					zap.String("notificationID", id),
					zap.String("recipient", recipient),
				)
				continue
			}
			return fmt.Errorf("failed to update notification %s: %w", id, err)
		}
	}

	return nil
}

// preferenceItem is the DynamoDB item structure for a channel preference.
type preferenceItem struct {
	PK               string `dynamodbav:"PK"`
	SK               string `dynamodbav:"SK"`
	EntityType       string `dynamodbav:"EntityType"`
	Username         string `dynamodbav:"Username"`
	NotificationType string `dynamodbav:"NotificationType"`
	Enabled          bool   `dynamodbav:"Enabled"`
}

func preferencePK(username string) string {
	return fmt.Sprintf("USER#%s", username)
}

func preferenceSK(notificationType string) string {
	return fmt.Sprintf("NOTIFPREF#%s", notificationType)
}

// GetPreference returns the stored preference, or nil when none exists.
func (r *NotificationRepository) GetPreference(ctx context.Context, username, notificationType string) (*notifdomain.Preference, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: preferencePK(username)},
			"SK": &types.AttributeValueMemberS{Value: preferenceSK(notificationType)},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item preferenceItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preference: %w", err)
	}

	return &notifdomain.Preference{
		Username:         item.Username,
		NotificationType: item.NotificationType,
		Enabled:          item.Enabled,
	}, nil
}

// SavePreference stores or replaces a preference.
func (r *NotificationRepository) SavePreference(ctx context.Context, pref notifdomain.Preference) error {
	item := preferenceItem{
		PK:               preferencePK(pref.Username),
		SK:               preferenceSK(pref.NotificationType),
		EntityType:       "NOTIFPREF",
		Username:         pref.Username,
		NotificationType: pref.NotificationType,
		Enabled:          pref.Enabled,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal preference: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}

	return nil
}

// toDomain maps an item back to the domain record.
func (i notificationItem) toDomain() notifdomain.Notification {
	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	modifiedAt, _ := time.Parse(time.RFC3339Nano, i.ModifiedAt)

	n := notifdomain.Notification{
		ID:            i.ID,
		Category:      notifdomain.Category(i.Category),
		Reason:        i.Reason,
		ReasonMessage: i.ReasonMessage,
		Status:        notifdomain.Status(i.Status),
		Recipient:     i.Recipient,
		Source:        i.Source,
		CreatedAt:     createdAt,
		ModifiedAt:    modifiedAt,
	}
	if i.Payload != "" {
		n.Payload = []byte(i.Payload)
	}
	return n
}
