// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const chanSize = 1024

// Parallel schedules and runs jobs in parallel. nJobs is the number of jobs, nWorkers is the
// number of executors and worker is called with the worker id and the job id. Remaining jobs
// are skipped once ctx is done or a worker fails. A panic in worker fails its job.
func Parallel(ctx context.Context, nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if err := runJob(worker, 0, i); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c := make(chan int, chanSize)
	// producer
	go func() {
		defer close(c)
		for i := 0; i < nJobs; i++ {
			select {
			case <-ctx.Done():
				return
			case c <- i:
			}
		}
	}()
	// consumer
	var (
		wg      sync.WaitGroup
		once    sync.Once
		failure error
		done    atomic.Int64
	)
	for j := 0; j < nWorkers; j++ {
		workerId := j
		wg.Go(func() {
			for jobId := range c {
				if ctx.Err() != nil {
					return
				}
				if err := runJob(worker, workerId, jobId); err != nil {
					once.Do(func() { failure = err })
					cancel()
					return
				}
				done.Add(1)
			}
		})
	}
	wg.Wait()
	if failure != nil {
		return errors.Trace(failure)
	}
	if n := int(done.Load()); n < nJobs {
		if ctx.Err() != nil {
			// jobs were never scheduled because the parent context was canceled
			return errors.Trace(context.Cause(ctx))
		}
		return errors.Errorf("%d of %d jobs not finished", nJobs-n, nJobs)
	}
	return nil
}

func runJob(worker func(workerId, jobId int) error, workerId, jobId int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Logger().Error("panic recovered", zap.Int("job_id", jobId), zap.Any("panic", r), zap.Stack("stack"))
			err = errors.Errorf("job %d panicked: %v", jobId, r)
		}
	}()
	return worker(workerId, jobId)
}
