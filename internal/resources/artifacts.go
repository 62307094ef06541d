// Package resources serves the generated documentation artifacts (API index
// and component catalog) and regenerates them through the script runner.
package resources

// Artifact is a named markdown document with a fixed file name, a static
// fallback and the Julia script that regenerates it.
type Artifact struct {
	Name     string
	File     string
	Fallback string
	Script   string
}

var (
	APIIndex = Artifact{
		Name:     "API index",
		File:     "api_index.md",
		Fallback: fallbackAPIIndex,
		Script:   apiIndexScript,
	}
	ComponentTypes = Artifact{
		Name:     "Component types",
		File:     "component_types.md",
		Fallback: fallbackComponentTypes,
		Script:   componentTypesScript,
	}
)

// All lists artifacts in generation order.
func All() []Artifact { return []Artifact{APIIndex, ComponentTypes} }

const fallbackAPIIndex = "# PowerAnalytics.jl API Index\n" +
	"\n" +
	"> **Note:** This is a static fallback. Run `pa-mcp generate-index` (or the `refresh_api_index` tool)\n" +
	"> to generate the full index from your installed PowerAnalytics.jl.\n" +
	"\n" +
	"## PowerAnalytics\n" +
	"- `create_problem_results_dict` [Function]: Load simulation results into a dictionary\n" +
	"- `make_selector` [Function]: Create a ComponentSelector for a PowerSystems.jl type\n" +
	"- `ComponentSelector` [Type]: Selector for filtering components\n" +
	"\n" +
	"## PowerAnalytics.Metrics\n" +
	"- `calc_active_power` [Function]: Compute active power time series\n" +
	"- `calc_production_cost` [Function]: Compute production cost time series\n" +
	"- `calc_capacity_factor` [Function]: Compute capacity factor\n"

const fallbackComponentTypes = "# PowerSystems.jl Component Types\n" +
	"\n" +
	"> **Note:** This is a static fallback. Run `pa-mcp generate-index` (or the `refresh_api_index` tool)\n" +
	"> to generate the full list from your installed PowerSystems.jl.\n" +
	"\n" +
	"## Generators\n" +
	"- `ThermalStandard`\n" +
	"- `RenewableDispatch`\n" +
	"- `RenewableNonDispatch`\n" +
	"- `HydroDispatch`\n" +
	"- `HydroEnergyReservoir`\n" +
	"\n" +
	"## Storage\n" +
	"- `EnergyReservoirStorage`\n" +
	"\n" +
	"## Electric Loads\n" +
	"- `PowerLoad`\n" +
	"\n" +
	"## Branches\n" +
	"- `Line`\n" +
	"- `TapTransformer`\n"

// apiIndexScript prints one line per exported symbol:
// - `name` [Kind]: first docstring line
const apiIndexScript = `using PowerSystems
using PowerSimulations
using StorageSystemsSimulations
using HydroPowerSimulations
using DataFrames
using Dates
using CSV
using PowerAnalytics
using PowerAnalytics.Metrics

modules = [
    ("PowerAnalytics", PowerAnalytics),
    ("PowerAnalytics.Metrics", PowerAnalytics.Metrics),
]
if isdefined(PowerAnalytics, :Selectors)
    push!(modules, ("PowerAnalytics.Selectors", PowerAnalytics.Selectors))
end

for (mod_name, mod) in modules
    println("## ", mod_name)
    println()
    for name in sort(names(mod; all=false))
        name == Symbol(mod_name) && continue
        name == Symbol(split(mod_name, ".")[end]) && continue
        obj = getfield(mod, name)
        lines = filter(!isempty, split(string(Base.doc(obj)), "\n"))
        first_line = isempty(lines) ? "No documentation" : strip(lines[1])
        if length(first_line) > 120
            first_line = first_line[1:117] * "..."
        end
        kind = obj isa Type ? "Type" : obj isa Function ? "Function" : "Const"
        println("- ` + "`" + `", name, "` + "`" + ` [", kind, "]: ", first_line)
    end
    println()
end
`

const componentTypesScript = `using PowerSystems
using InteractiveUtils

println("# PowerSystems.jl Component Types")
println()
println("Concrete component types available for use with ` + "`make_selector()`" + `:")
println()

abstract_types = [
    ("Generators", Generator),
    ("Storage", Storage),
    ("Electric Loads", ElectricLoad),
    ("Branches", Branch),
]

function concrete_subtypes(T, depth)
    found = Symbol[]
    for S in subtypes(T)
        isconcretetype(S) && push!(found, nameof(S))
        depth > 1 && append!(found, concrete_subtypes(S, depth - 1))
    end
    return found
end

for (label, abstract_type) in abstract_types
    println("## ", label)
    for name in sort(unique(concrete_subtypes(abstract_type, 3)))
        println("- ` + "`" + `", name, "` + "`" + `")
    end
    println()
end
`
