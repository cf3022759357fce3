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

// Item is one candidate competing for the available core budget.
type Item struct {
	Weight int // threads required
	Value  int // scheduling priority; higher wins when cores are scarce
}

// Knapsack solves the 0/1 knapsack problem exactly via dynamic programming,
// returning the indices into items selected to run, such that their
// combined Weight fits within capacity while maximizing total Value.
// Grounded on KnapsackJobScheduler._knapsack in the original Python
// implementation this scheduler was distilled from, including its
// tie-break: an item is only included in the backtrack if adding it
// strictly increased the table's value at that cell, so among equally
// good selections the one built from earlier items wins (the result is
// stable with respect to input order, not minimal in job count).
func Knapsack(items []Item, capacity int) []int {
	if capacity < 0 {
		capacity = 0
	}
	n := len(items)

	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, capacity+1)
	}
	for i := 1; i <= n; i++ {
		weight := items[i-1].Weight
		value := items[i-1].Value
		for cap := 0; cap <= capacity; cap++ {
			without := table[i-1][cap]
			if weight > cap {
				table[i][cap] = without
				continue
			}
			with := table[i-1][cap-weight] + value
			if with > without {
				table[i][cap] = with
			} else {
				table[i][cap] = without
			}
		}
	}

	var selected []int
	cap := capacity
	for i := n; i > 0; i-- {
		if table[i][cap] != table[i-1][cap] {
			selected = append(selected, i-1)
			cap -= items[i-1].Weight
		}
	}
	return selected
}
