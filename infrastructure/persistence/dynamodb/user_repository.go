package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/domain/users"
)

// UserRepository implements ports.UserRepository. User profiles live under
// USER#<username>; role memberships are separate items partitioned by role so
// listing a role's members is a single query.
type UserRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// userItem is the DynamoDB item structure for a user profile.
type userItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Username   string `dynamodbav:"Username"`
	FullName   string `dynamodbav:"FullName,omitempty"`
	Email      string `dynamodbav:"Email,omitempty"`
	Locale     string `dynamodbav:"Locale,omitempty"`
	Status     string `dynamodbav:"Status"`
	JoinedAt   string `dynamodbav:"JoinedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

// roleMemberItem records one user's membership in one role.
type roleMemberItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Role       string `dynamodbav:"Role"`
	Username   string `dynamodbav:"Username"`
}

func userPK(username string) string {
	return fmt.Sprintf("USER#%s", username)
}

func rolePK(role string) string {
	return fmt.Sprintf("ROLE#%s", role)
}

// GetByUsername returns the user, or nil when unknown.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(username)},
			"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	user := item.toDomain()
	return &user, nil
}

// Create stores a new user account. An existing username is an error.
func (r *UserRepository) Create(ctx context.Context, u users.User) error {
	item := userItem{
		PK:         userPK(u.Username),
		SK:         "PROFILE",
		EntityType: "USER",
		Username:   u.Username,
		FullName:   u.FullName,
		Email:      u.Email,
		Locale:     u.Locale,
		Status:     string(u.Status),
		JoinedAt:   u.JoinedAt.Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("User created", zap.String("username", u.Username))
	return nil
}

// SetStatus updates the account lifecycle status.
func (r *UserRepository) SetStatus(ctx context.Context, username string, status users.AccountStatus) error {
	update := expression.Set(expression.Name("Status"), expression.Value(string(status))).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().Format(time.RFC3339)))
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
			"PK": &types.AttributeValueMemberS{Value: userPK(username)},
			"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("failed to set user status: %w", err)
	}
	return nil
}

// ListByRole returns every user holding the given role. Memberships whose
// profile has vanished are skipped.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]users.User, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(rolePK(role)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	var members []users.User

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query role members: %w", err)
		}

		for _, raw := range page.Items {
			var item roleMemberItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable role member item", zap.Error(err))
				continue
			}

			user, err := r.GetByUsername(ctx, item.Username)
			if err != nil {
				return nil, err
			}
			if user == nil {
				r.logger.Warn("Role member has no profile",
					zap.String("role", role),
					zap.String("username", item.Username),
				)
				continue
			}
			members = append(members, *user)
		}
	}

	return members, nil
}

// AddRole grants a role to a user. Granting an already held role is a no-op.
func (r *UserRepository) AddRole(ctx context.Context, username, role string) error {
	item := roleMemberItem{
		PK:         rolePK(role),
		SK:         userPK(username),
		EntityType: "ROLE_MEMBER",
		Role:       role,
		Username:   username,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal role membership: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}

	return nil
}

// toDomain maps an item back to the domain user.
func (i userItem) toDomain() users.User {
	joinedAt, _ := time.Parse(time.RFC3339, i.JoinedAt)
	updatedAt, _ := time.Parse(time.RFC3339, i.UpdatedAt)

	return users.User{
		Username:  i.Username,
		FullName:  i.FullName,
		Email:     i.Email,
		Locale:    i.Locale,
		Status:    users.AccountStatus(i.Status),
		JoinedAt:  joinedAt,
		UpdatedAt: updatedAt,
	}
}
