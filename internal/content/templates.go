package content

import "html/template"

var blogTemplate = template.Must(template.New("blog").Parse(`
<h2>Introduction to {{.Title}}</h2>
<p>In today's rapidly evolving business landscape, <strong>{{.Main}}</strong> has become a crucial factor for organizational success. Companies that effectively leverage <strong>{{.Second}}</strong> gain significant competitive advantages in their respective markets. This comprehensive guide explores essential strategies and best practices for maximizing results.</p>

<h2>Understanding the Strategic Importance</h2>
<p>Before implementing any initiative, it's essential to grasp why <strong>{{.Main}}</strong> matters. Organizations that prioritize <strong>{{.Second}}</strong> typically experience improved operational efficiency, enhanced customer satisfaction, and stronger market positioning. Research indicates that companies investing in these areas outperform competitors by up to 35%.</p>

<h2>Key Implementation Approaches</h2>
<p>Successful implementation requires a structured methodology. Begin by conducting a thorough assessment of your current capabilities and identifying areas where improvement will deliver the greatest impact. Developing a phased approach ensures manageable transitions and allows for necessary adjustments along the way.</p>

<h2>Technology Integration Considerations</h2>
<p>Modern <strong>{{.Main}}</strong> strategies rely heavily on technological infrastructure. Cloud-based platforms, automation tools, and analytics solutions enable more efficient processes and data-driven decision making. When selecting technology partners, prioritize those offering scalable solutions with proven integration capabilities.</p>

<h2>Building Organizational Capacity</h2>
<p>Your team's capabilities directly impact implementation success. Invest in comprehensive training programs focused on both technical skills and strategic understanding. Create cross-functional working groups to ensure diverse perspectives inform your <strong>{{.Second}}</strong> initiatives and foster broader organizational buy-in.</p>

<h2>Measuring Performance and ROI</h2>
<p>Establishing clear metrics is essential for tracking progress and demonstrating value. Develop a balanced scorecard that includes both leading and lagging indicators. Regular performance reviews help identify adjustment opportunities and ensure continued alignment with organizational objectives.</p>

<h2>Future Trends and Developments</h2>
<p>The <strong>{{.Main}}</strong> landscape continues to evolve rapidly. Emerging technologies like artificial intelligence and machine learning are creating new possibilities for innovation. Organizations that stay informed about these developments and remain adaptable will be best positioned for long-term <strong>{{.Second}}</strong> success.</p>
`))

// titleTemplates are filled with fmt.Sprintf and a single keyword.
var titleTemplates = []string{
	"The Ultimate Guide to %s",
	"%s 101: Essential Information",
	"How %s Transforms Modern Business",
	"Top 10 %s Strategies for Success",
	"The Future of %s in 2024",
	"Why %s Matters for Your Business",
	"%s Best Practices You Should Know",
	"Exploring %s: A Comprehensive Overview",
	"%s Innovations Changing the Industry",
	"Understanding %s: Key Concepts Explained",
}
