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
package sched

import (
	"testing"
)

func totalWeight(items []Item, selected []int) int {
	total := 0
	for _, i := range selected {
		total += items[i].Weight
	}
	return total
}

func totalValue(items []Item, selected []int) int {
	total := 0
	for _, i := range selected {
		total += items[i].Value
	}
	return total
}

func TestKnapsackRespectsCapacity(t *testing.T) {
	items := []Item{
		{Weight: 4, Value: 4},
		{Weight: 3, Value: 3},
		{Weight: 2, Value: 2},
	}
	selected := Knapsack(items, 5)
	if totalWeight(items, selected) > 5 {
		t.Fatalf("selection exceeds capacity: %v", selected)
	}
	if got := totalValue(items, selected); got != 5 {
		t.Fatalf("expected optimal value 5, got %d (selected=%v)", got, selected)
	}
}

func TestKnapsackEmptyWhenCapacityZero(t *testing.T) {
	items := []Item{{Weight: 1, Value: 1}}
	selected := Knapsack(items, 0)
	if len(selected) != 0 {
		t.Fatalf("expected no selection at zero capacity, got %v", selected)
	}
}

func TestKnapsackTieBreakPrefersFewerItems(t *testing.T) {
	// Two single-unit items worth 1 each equal a single two-unit item worth
	// 2: the same optimal value is reachable either way. The tie-break
	// (only include an item when it strictly increases the table value)
	// leaves out later items whenever earlier ones already reach that value,
	// so the backtrack keeps the single two-unit item, which comes first.
	items := []Item{
		{Weight: 2, Value: 2},
		{Weight: 1, Value: 1},
		{Weight: 1, Value: 1},
	}
	selected := Knapsack(items, 2)
	if totalValue(items, selected) != 2 {
		t.Fatalf("expected optimal value 2, got %d", totalValue(items, selected))
	}
	if len(selected) != 1 || selected[0] != 0 {
		t.Fatalf("expected the tie-break to select only the first item, got %v", selected)
	}
}

func TestKnapsackAllItemsFit(t *testing.T) {
	items := []Item{{Weight: 1, Value: 1}, {Weight: 1, Value: 1}, {Weight: 1, Value: 1}}
	selected := Knapsack(items, 10)
	if len(selected) != 3 {
		t.Fatalf("expected all 3 items selected, got %v", selected)
	}
}
