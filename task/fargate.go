package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ecs"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Log group/stream naming follows
// https://docs.aws.amazon.com/AmazonECS/latest/developerguide/using_awslogs.html
// (awslogs-stream-prefix/container-name/ecs-task-id).
const (
	LogGroupName    = "/aws/ecs/flowrun"
	logStreamPrefix = "flowrun"
)

// TaskDefinition identifies a registered ECS task definition.
type TaskDefinition struct {
	ARN     arn.ARN
	Name    string
	Version string
}

// FargateConfig names the ECS cluster, task definition and networking a
// FargateRunner launches tasks into.
type FargateConfig struct {
	ContainerName  string
	Subnets        []string
	SecurityGroup  string
	Cluster        string
	TaskDefinition string
	AssignPublicIP bool
	Athens         string
}

type fargateRunner struct {
	ecs *ecs.ECS
	s3  *s3.S3
	cfg FargateConfig
}

// NewFargate returns a Runner backed by ECS Fargate.
func NewFargate(sess *session.Session, cfg FargateConfig) Runner {
	return &fargateRunner{ecs: ecs.New(sess), s3: s3.New(sess), cfg: cfg}
}

func (r *fargateRunner) validate(definition string) error {
	switch {
	case r.cfg.Cluster == "":
		return errors.New("fargate: cluster is unset")
	case definition == "":
		return errors.New("fargate: task definition is unset")
	case r.cfg.ContainerName == "":
		return errors.New("fargate: container name is unset")
	case len(r.cfg.Subnets) == 0:
		return errors.New("fargate: subnets are unset")
	case r.cfg.SecurityGroup == "":
		return errors.New("fargate: security group is unset")
	}
	return nil
}

func (r *fargateRunner) containerOverrides(opts Options) []*ecs.ContainerOverride {
	var environment []*ecs.KeyValuePair
	for k, v := range opts.Environment {
		environment = append(environment, &ecs.KeyValuePair{Name: aws.String(k), Value: aws.String(v)})
	}
	if r.cfg.Athens != "" {
		environment = append(environment, &ecs.KeyValuePair{
			Name:  aws.String("GOPROXY"),
			Value: aws.String(fmt.Sprintf("http://%s:3000", r.cfg.Athens)),
		})
	}

	override := &ecs.ContainerOverride{Name: aws.String(r.cfg.ContainerName), Environment: environment}
	if opts.Memory > 0 {
		override.Memory = &opts.Memory
	}
	if opts.CPU > 0 {
		override.Cpu = &opts.CPU
	}
	return []*ecs.ContainerOverride{override}
}

func (r *fargateRunner) Run(ctx context.Context, opts Options) (*Task, error) {
	definition := r.cfg.TaskDefinition
	if opts.Definition != "" {
		definition = opts.Definition
	}
	if err := r.validate(definition); err != nil {
		return nil, err
	}

	assignPublicIP := ecs.AssignPublicIpDisabled
	if r.cfg.AssignPublicIP {
		assignPublicIP = ecs.AssignPublicIpEnabled
	}

	var subnets []*string
	for _, subnet := range r.cfg.Subnets {
		subnets = append(subnets, aws.String(subnet))
	}

	result, err := r.ecs.RunTaskWithContext(ctx, &ecs.RunTaskInput{
		LaunchType:     aws.String(ecs.LaunchTypeFargate),
		Cluster:        aws.String(r.cfg.Cluster),
		TaskDefinition: aws.String(definition),
		NetworkConfiguration: &ecs.NetworkConfiguration{
			AwsvpcConfiguration: &ecs.AwsVpcConfiguration{
				AssignPublicIp: aws.String(assignPublicIP),
				SecurityGroups: []*string{aws.String(r.cfg.SecurityGroup)},
				Subnets:        subnets,
			},
		},
		Overrides: &ecs.TaskOverride{ContainerOverrides: r.containerOverrides(opts)},
	})
	if err != nil {
		return nil, fmt.Errorf("fargate: run task: %w", err)
	}
	if len(result.Tasks) != 1 {
		return nil, fmt.Errorf("fargate: expected exactly one task, got %d", len(result.Tasks))
	}

	taskARN := *result.Tasks[0].TaskArn
	taskID := strings.Split(taskARN, "/")[1]
	return &Task{
		ID:        taskID,
		ARN:       taskARN,
		LogGroup:  LogGroupName,
		LogStream: fmt.Sprintf("%s/%s/%s", logStreamPrefix, r.cfg.ContainerName, taskID),
	}, nil
}

func (r *fargateRunner) WaitUntilRunning(ctx context.Context, tasks ...*Task) error {
	if len(tasks) == 0 {
		return nil
	}
	err := r.ecs.WaitUntilTasksRunningWithContext(ctx, &ecs.DescribeTasksInput{
		Cluster: aws.String(r.cfg.Cluster),
		Tasks:   taskIDs(tasks),
	})
	if err != nil {
		return fmt.Errorf("fargate: wait until running: %w", err)
	}
	return nil
}

func (r *fargateRunner) WaitUntilStopped(ctx context.Context, tasks ...*Task) error {
	if len(tasks) == 0 {
		return nil
	}
	err := r.ecs.WaitUntilTasksStoppedWithContext(ctx, &ecs.DescribeTasksInput{
		Cluster: aws.String(r.cfg.Cluster),
		Tasks:   taskIDs(tasks),
	})
	if err != nil {
		return fmt.Errorf("fargate: wait until stopped: %w", err)
	}
	return nil
}

func taskIDs(tasks []*Task) []*string {
	ids := make([]*string, len(tasks))
	for i, t := range tasks {
		ids[i] = aws.String(t.ID)
	}
	return ids
}
