// Package ddb provides a simple repository for interacting with DynamoDB for
// submission and profile records.
package ddb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ecohunt/serverless-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	profileSK   = "PROFILE"
	submissionP = "SUB#"
)

// API is the subset of the DynamoDB client used by Repo.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Repo wraps a DynamoDB client and table name. Submissions and the profile
// of a user share one partition.
type Repo struct {
	DB    API
	Table string
}

// InsertSubmission writes a submission, refusing to overwrite an existing one.
func (r *Repo) InsertSubmission(ctx context.Context, s models.Submission) error {
	s.PK, s.SK = MakeKeys(s.UserID, s.ID)
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return err
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.Table,
		Item:                item,
		ConditionExpression: awsStr("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	return err
}

// IncrementPoints adds delta to the profile's points with an atomic ADD,
// creating the profile item if needed.
func (r *Repo) IncrementPoints(ctx context.Context, userID string, delta int) error {
	pk, sk := ProfileKeys(userID)
	_, err := r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &r.Table,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression: awsStr("ADD points :d SET user_id = if_not_exists(user_id, :u)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	})
	return err
}

// ListSubmissions returns up to limit submissions, newest first (ULID sort keys).
func (r *Repo) ListSubmissions(ctx context.Context, userID string, limit int) ([]models.Submission, error) {
	pk, _ := ProfileKeys(userID)
	out, err := r.DB.Query(ctx, &dynamodb.QueryInput{
		TableName:              &r.Table,
		KeyConditionExpression: awsStr("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
			":sk": &types.AttributeValueMemberS{Value: submissionP},
		},
		ScanIndexForward: awsBool(false),
		Limit:            awsInt32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	subs := make([]models.Submission, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// GetProfile reads a user's profile item.
func (r *Repo) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	pk, sk := ProfileKeys(userID)
	out, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.Table,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return models.Profile{}, err
	}
	if len(out.Item) == 0 {
		return models.Profile{}, models.ErrProfileNotFound
	}
	var p models.Profile
	err = attributevalue.UnmarshalMap(out.Item, &p)
	return p, err
}

// Close is a no-op; the SDK client holds no connections to release.
func (r *Repo) Close() {}

// awsStr is a helper to get a pointer to a string literal.
func awsStr(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }

func awsInt32(n int32) *int32 { return &n }

// MakeKeys constructs the partition key (PK) and sort key (SK) for a submission record.
func MakeKeys(sub, submissionID string) (pk, sk string) {
	return fmt.Sprintf("USER#%s", sub), submissionP + submissionID
}

// ProfileKeys constructs the keys of a user's profile item.
func ProfileKeys(sub string) (pk, sk string) {
	return fmt.Sprintf("USER#%s", sub), profileSK
}
