// Copyright 2020 Fugue, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

// Queue publishes Events as JSON messages on an SQS queue, adapted from the
// teacher's queue.Queue (Send/Receive/Name/Delete narrowed to the one
// capability a scheduler needs: publish).
type Queue struct {
	url string
	api sqsiface.SQSAPI
}

// NewQueue returns a Queue publishing to the SQS queue at url.
func NewQueue(api sqsiface.SQSAPI, url string) *Queue {
	return &Queue{url: url, api: api}
}

// CreateQueue creates a new SQS queue named name and returns a Queue
// publishing to it, mirroring the teacher's queue.CreateSQS.
func CreateQueue(api sqsiface.SQSAPI, name string) (*Queue, error) {
	resp, err := api.CreateQueue(&sqs.CreateQueueInput{QueueName: aws.String(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to create queue %s: %w", name, err)
	}
	return NewQueue(api, *resp.QueueUrl), nil
}

// Publish sends e as a JSON message body.
func (q *Queue) Publish(e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = q.api.SendMessage(&sqs.SendMessageInput{
		DelaySeconds: aws.Int64(0),
		MessageBody:  aws.String(string(body)),
		QueueUrl:     aws.String(q.url),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", q.url, err)
	}
	return nil
}
