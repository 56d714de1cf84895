package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/samvad-hq/samvad-news-search/internal/domain"
	"github.com/samvad-hq/samvad-news-search/internal/logger"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestAWSSNSSenderSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	sender := &awsSNSSender{
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      logger.NopLogger{},
	}

	err := sender.Send(context.Background(), Event{
		RunID:    "run-1",
		SearchID: "search-1",
		Record:   domain.Record{Title: "t", Link: "https://news.example.com/a1"},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["search_id"]
	if !ok || attr.StringValue == nil || aws.ToString(attr.StringValue) != "search-1" {
		t.Fatalf("search_id attribute missing or wrong: %#v", attr)
	}
	if _, ok := client.input.MessageAttributes["run_id"]; !ok {
		t.Fatalf("run_id attribute missing")
	}
	if attr.DataType == nil || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if client.input.Message == nil || !strings.Contains(aws.ToString(client.input.Message), `"link":"https://news.example.com/a1"`) {
		t.Fatalf("Message missing record link: %s", aws.ToString(client.input.Message))
	}
}

func TestAWSSNSSenderSendError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("boom")}
	sender := &awsSNSSender{
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      logger.NopLogger{},
	}

	err := sender.Send(context.Background(), Event{
		RunID:    "run-1",
		SearchID: "search-1",
		Record:   domain.Record{Title: "t", Link: "https://news.example.com/a1"},
	})
	if err == nil {
		t.Fatalf("expected error from Send")
	}
}
