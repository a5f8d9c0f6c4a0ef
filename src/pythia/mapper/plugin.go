package mapper

import (
	"fmt"

	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
)

// PluginInfoToRuntimePrioritizedMethods maps all Info from running plugins, into a prioritized list of modules to run per method.
func PluginInfoToRuntimePrioritizedMethods(allPluginInfo []plugin.Info) (plugin.RuntimePrioritizedMethods, error) {
	result := make(plugin.RuntimePrioritizedMethods)
	methodPriorityBuckets := make(map[string]map[plugin.Priority][]*plugin.Methods)

	for _, pluginInfo := range allPluginInfo {
		if err := pluginInfo.Validate(); err != nil {
			return nil, fmt.Errorf("error validating plugin configuration: %w", err)
		}

		// Add this plugin to its assigned priority bucket for each method.
		for method, priority := range pluginInfo.Priorities {
			if _, ok := methodPriorityBuckets[method]; !ok {
				methodPriorityBuckets[method] = make(map[plugin.Priority][]*plugin.Methods)
			}
			methodPriorityBuckets[method][priority] = append(methodPriorityBuckets[method][priority], pluginInfo.Methods)
		}
	}

	// Consolidate the final buckets into two slices (sync and async) ordered for execution.
	for method, buckets := range methodPriorityBuckets {
		for priority := plugin.PriorityHigh; priority <= plugin.PriorityAsync; priority++ {
			current, ok := result[method]
			if !ok {
				current = plugin.MethodLists{}
			}
			if priority < plugin.PriorityAsync {
				current.Sync = append(result[method].Sync, buckets[priority]...)
			} else {
				current.Async = append(result[method].Async, buckets[priority]...)
			}
			result[method] = current
		}
	}

	return result, nil
}
