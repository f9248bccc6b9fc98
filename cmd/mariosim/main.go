/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

// mariosim runs the kernel against the simulated arch.Port and prints a
// trace of task activations, the same role binaryGenerator and its
// siblings play for the ingest pipeline: a small standalone program
// that exercises the library end to end without any hardware attached.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/google/uuid"

	"github.com/mbarbareschi/mariosgo/arch/simport"
	"github.com/mbarbareschi/mariosgo/kconfig"
	"github.com/mbarbareschi/mariosgo/kernel"
	"github.com/mbarbareschi/mariosgo/klog"
	"github.com/mbarbareschi/mariosgo/queue"
)

var (
	configPath = flag.String("config", "", "path to an optional kernel .cfg file; defaults are used if empty")
	policyFlag = flag.String("policy", "roundrobin", "scheduling policy: roundrobin or priority")
	workers    = flag.Int("workers", 3, "number of periodic worker tasks to create")
	traceHz    = flag.Float64("trace-rate", 20, "maximum trace lines printed per second")
	runFor     = flag.Duration("for", 5*time.Second, "how long to run before shutting down")
	logLevel   = flag.String("log-level", "", "override the configured log level")
)

func main() {
	flag.Parse()

	cfg := kconfig.Default()
	if *configPath != "" {
		loaded, err := kconfig.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("mariosim: loading config: %v", err)
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	lg := klog.New(os.Stdout)
	lvl, err := klog.LevelFromString(cfg.LogLevel)
	if err != nil {
		log.Fatalf("mariosim: %v", err)
	}
	lg.SetLevel(lvl)
	defer lg.Close()

	policy := kernel.PolicyRoundRobin
	if *policyFlag == "priority" {
		policy = kernel.PolicyPriority
	}

	port := simport.New(lg)
	k, err := kernel.New(cfg, port, lg, policy)
	if err != nil {
		log.Fatalf("mariosim: %v", err)
	}

	limiter := rate.NewLimiter(rate.Limit(*traceHz), 1)
	mailbox, err := queue.NewQueue(16)
	if err != nil {
		log.Fatalf("mariosim: %v", err)
	}

	trace := func(runID string, taskID kernel.TaskID, msg string) {
		if !limiter.Allow() {
			return
		}
		lg.Info(msg, klog.KV("run", runID), klog.KV("task", taskID))
	}

	for i := 0; i < *workers; i++ {
		runID := uuid.NewString()
		priority := uint8(i + 1)
		periodMS := uint32(100 * (i + 1))
		_, err := k.CreateTask(worker(k, mailbox, runID, priority, periodMS, trace), cfg.MinStackWords, priority, periodMS*cfg.TickHz/1000)
		if err != nil {
			log.Fatalf("mariosim: creating worker %d: %v", i, err)
		}
	}

	go func() {
		if err := k.Start(1000); err != nil {
			log.Fatalf("mariosim: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-time.After(*runFor):
		lg.Info("mariosim: run duration elapsed")
	case s := <-sig:
		lg.Info("mariosim: received signal", klog.KV("signal", s.String()))
	}

	fmt.Fprintf(os.Stderr, "idle: %d%%\n", k.GetIdlePercentage())
}

// worker is a periodic task body: post its identity to a shared mailbox
// queue, sleep for its period, repeat. Lower-indexed workers have a
// shorter period and post more often; higher-indexed workers have a
// higher priority, which is what makes the -policy=priority trace
// visibly different from -policy=roundrobin.
func worker(k *kernel.Kernel, mailbox *queue.Queue, runID string, priority uint8, periodMS uint32, trace func(string, kernel.TaskID, string)) func() {
	return func() {
		for {
			id := k.GetCurrentTaskID()
			trace(runID, id, "tick")
			mailbox.Enqueue(k, []byte{byte(id)}, queue.NonBlocking)
			k.DelayMS(periodMS)
		}
	}
}
